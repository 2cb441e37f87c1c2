// Package api is the console's authenticated request gateway: every call to
// the platform REST API goes through Client, which prefixes the configured
// base address and attaches the current bearer credential.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the request timeout used when none is configured
const DefaultTimeout = 30 * time.Second

// CredentialSource provides the raw bearer credential for the next request.
// An empty string means the request goes out unauthenticated.
type CredentialSource interface {
	RawToken(ctx context.Context) string
}

// Client представляет HTTP клиент для взаимодействия с API платформы
type Client struct {
	httpClient  *http.Client
	credentials CredentialSource
	baseURL     string
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient создает новый API клиент.
// baseURL используется как есть в качестве префикса всех путей.
func NewClient(baseURL string, credentials CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured API base address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// newRequest собирает запрос и прикрепляет текущий credential
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Credential читается перед каждым запросом: sign-in/sign-out
	// действуют на все последующие вызовы
	if c.credentials != nil {
		if token := c.credentials.RawToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// send выполняет запрос; для не-2xx ответа тело читается и закрывается,
// возвращается *APIError
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() {
			_ = resp.Body.Close()
		}()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	return resp, nil
}

// doRequest выполняет JSON запрос и декодирует JSON ответ в result
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, result any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Пустой ответ допустим (например, 204 на DELETE)
	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// doText выполняет запрос, ответ которого является простым текстом
func (c *Client) doText(ctx context.Context, method, path string, query url.Values) (string, error) {
	req, err := c.newRequest(ctx, method, path, query, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.send(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(bytes.TrimSpace(respBody)), nil
}

// doStream копирует бинарный ответ в w, не буферизуя его целиком
func (c *Client) doStream(ctx context.Context, method, path string, query url.Values, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, method, path, query, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read response stream: %w", err)
	}

	return n, nil
}
