package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/storage"
	"github.com/iudanet/labdesk/pkg/api"
)

//go:generate moq -out publisher_mock.go . Publisher

// Publisher рассылает push-уведомления
type Publisher interface {
	Publish(ctx context.Context, n api.Notification)
}

// Resource описывает коллекцию документов и ее REST представление
type Resource struct {
	Collection string   // имя коллекции в хранилище
	IDField    string   // поле, в которое пишется присвоенный ID
	Noun       string   // имя сущности в уведомлениях
	Event      string   // префикс типа уведомления
	Filters    []string // поля, допустимые как query фильтры
}

// Коллекции платформы
var (
	Projects       = Resource{Collection: "projects", IDField: "projectId", Noun: "project", Event: "PROJECT", Filters: []string{"managerId", "status"}}
	Tasks          = Resource{Collection: "tasks", IDField: "taskId", Noun: "task", Event: "TASK", Filters: []string{"projectId", "assignedTo"}}
	TeamMembers    = Resource{Collection: "team", IDField: "memberId", Noun: "team member", Event: "TEAM_MEMBER", Filters: []string{"projectId"}}
	Budgets        = Resource{Collection: "budgets", IDField: "budgetId", Noun: "budget", Event: "BUDGET"}
	FundingSources = Resource{Collection: "funding-sources", IDField: "fundingSourceId", Noun: "funding source", Event: "FUNDING_SOURCE"}
	Publications   = Resource{Collection: "publications", IDField: "publicationId", Noun: "publication", Event: "PUBLICATION", Filters: []string{"projectId"}}
	Equipment      = Resource{Collection: "equipment", IDField: "equipmentId", Noun: "equipment", Event: "EQUIPMENT", Filters: []string{"availabilityStatus"}}
)

// fields - тело документа; числа сохраняются как json.Number
type fields map[string]any

// ResourceHandler реализует CRUD над коллекциями документов
type ResourceHandler struct {
	responder
	docs      storage.DocumentStorage
	users     storage.UserStorage
	publisher Publisher
}

// NewResourceHandler создает handler коллекций
func NewResourceHandler(logger *slog.Logger, docs storage.DocumentStorage, users storage.UserStorage, publisher Publisher) *ResourceHandler {
	return &ResourceHandler{
		responder: responder{logger: logger},
		docs:      docs,
		users:     users,
		publisher: publisher,
	}
}

// List обрабатывает GET /api/{collection}
func (h *ResourceHandler) List(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := make(map[string]string)
		query := r.URL.Query()
		for _, f := range res.Filters {
			if v := query.Get(f); v != "" {
				filter[f] = v
			}
		}
		h.sendList(w, r, res, filter)
	}
}

// Get обрабатывает GET /api/{collection}/{id}
func (h *ResourceHandler) Get(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r)
		if !ok {
			return
		}

		doc, err := h.docs.GetDocument(r.Context(), res.Collection, id)
		if err != nil {
			h.storageError(w, r, res, err)
			return
		}

		h.sendJSON(w, doc.Data, http.StatusOK)
	}
}

// Create обрабатывает POST /api/{collection}
func (h *ResourceHandler) Create(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := h.readFields(w, r, res)
		if !ok {
			return
		}
		h.create(w, r, res, body)
	}
}

// Update обрабатывает PUT /api/{collection}/{id}: поля тела сливаются
// с сохраненными, отсутствующие поля не меняются
func (h *ResourceHandler) Update(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r)
		if !ok {
			return
		}
		body, ok := h.readFields(w, r, res)
		if !ok {
			return
		}
		h.patch(w, r, res, id, body)
	}
}

// Delete обрабатывает DELETE /api/{collection}/{id}
func (h *ResourceHandler) Delete(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r)
		if !ok {
			return
		}

		if err := h.docs.DeleteDocument(r.Context(), res.Collection, id); err != nil {
			h.storageError(w, r, res, err)
			return
		}

		h.notify(r.Context(), res, "DELETED", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// CreateProject обрабатывает POST /api/projects; managerFullName
// заполняется по managerId
func (h *ResourceHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readFields(w, r, Projects)
	if !ok {
		return
	}
	if !h.fillManagerName(w, r, body) {
		return
	}
	h.create(w, r, Projects, body)
}

// UpdateProject обрабатывает PUT /api/projects/{id}
func (h *ResourceHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if !h.canManageProject(w, r, id) {
		return
	}
	body, ok := h.readFields(w, r, Projects)
	if !ok {
		return
	}
	if !h.fillManagerName(w, r, body) {
		return
	}
	h.patch(w, r, Projects, id, body)
}

// DeleteProject обрабатывает DELETE /api/projects/{id} вместе с задачами,
// командой и бюджетом проекта
func (h *ResourceHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if !h.canManageProject(w, r, id) {
		return
	}

	dependents := []string{Tasks.Collection, TeamMembers.Collection, Budgets.Collection}
	if err := h.docs.DeleteCascade(ctx, Projects.Collection, id, "projectId", dependents); err != nil {
		h.storageError(w, r, Projects, err)
		return
	}

	h.notify(ctx, Projects, "DELETED", id)
	w.WriteHeader(http.StatusNoContent)
}

// ListTeam обрабатывает GET /api/projects/{id}/team
func (h *ResourceHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	h.sendList(w, r, TeamMembers, map[string]string{"projectId": strconv.FormatInt(id, 10)})
}

// AddTeamMember обрабатывает POST /api/projects/{id}/team
func (h *ResourceHandler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	body, ok := h.readFields(w, r, TeamMembers)
	if !ok {
		return
	}

	userID, ok := int64Field(body, "userId")
	if !ok {
		h.sendError(w, "userId is required", http.StatusBadRequest)
		return
	}
	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, fmt.Sprintf("user %d not found", userID), http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to get user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	body["projectId"] = id
	if name, _ := body["fullName"].(string); name == "" {
		body["fullName"] = user.FullName
	}

	h.create(w, r, TeamMembers, body)
}

// GetBudget обрабатывает GET /api/projects/{id}/budget.
// Для проекта без бюджета возвращается нулевой бюджет.
func (h *ResourceHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}

	doc, err := h.findBudget(r.Context(), id)
	if err != nil {
		h.storageError(w, r, Budgets, err)
		return
	}
	if doc == nil {
		h.sendJSON(w, fields{"projectId": id, "allocatedAmount": 0, "spentAmount": 0}, http.StatusOK)
		return
	}

	h.sendJSON(w, doc.Data, http.StatusOK)
}

// UpdateBudget обрабатывает PUT /api/projects/{id}/budget
func (h *ResourceHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	body, ok := h.readFields(w, r, Budgets)
	if !ok {
		return
	}
	body["projectId"] = id

	doc, err := h.findBudget(r.Context(), id)
	if err != nil {
		h.storageError(w, r, Budgets, err)
		return
	}
	if doc == nil {
		h.create(w, r, Budgets, body)
		return
	}
	h.patch(w, r, Budgets, doc.ID, body)
}

func (h *ResourceHandler) findBudget(ctx context.Context, projectID int64) (*storage.Document, error) {
	docs, err := h.docs.ListDocuments(ctx, Budgets.Collection, map[string]string{"projectId": strconv.FormatInt(projectID, 10)})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (h *ResourceHandler) sendList(w http.ResponseWriter, r *http.Request, res Resource, filter map[string]string) {
	docs, err := h.docs.ListDocuments(r.Context(), res.Collection, filter)
	if err != nil {
		h.storageError(w, r, res, err)
		return
	}

	items := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.Data)
	}
	h.sendJSON(w, items, http.StatusOK)
}

func (h *ResourceHandler) create(w http.ResponseWriter, r *http.Request, res Resource, body fields) {
	data, err := json.Marshal(body)
	if err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.docs.CreateDocument(r.Context(), res.Collection, res.IDField, data)
	if err != nil {
		h.storageError(w, r, res, err)
		return
	}

	h.notify(r.Context(), res, "CREATED", doc.ID)
	h.sendJSON(w, doc.Data, http.StatusCreated)
}

func (h *ResourceHandler) patch(w http.ResponseWriter, r *http.Request, res Resource, id int64, body fields) {
	data, err := json.Marshal(body)
	if err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.docs.PatchDocument(r.Context(), res.Collection, id, data)
	if err != nil {
		h.storageError(w, r, res, err)
		return
	}

	h.notify(r.Context(), res, "UPDATED", id)
	h.sendJSON(w, doc.Data, http.StatusOK)
}

// readFields читает JSON объект тела; ID задает только сервер
func (h *ResourceHandler) readFields(w http.ResponseWriter, r *http.Request, res Resource) (fields, bool) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body fields
	if err := dec.Decode(&body); err != nil || body == nil {
		h.logger.WarnContext(r.Context(), "invalid document body",
			slog.String("collection", res.Collection),
			slog.Any("error", err))
		h.sendError(w, "request body must be a JSON object", http.StatusBadRequest)
		return nil, false
	}

	delete(body, res.IDField)
	return body, true
}

func (h *ResourceHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.sendError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// projectFromPath проверяет, что проект из пути существует
func (h *ResourceHandler) projectFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := h.pathID(w, r)
	if !ok {
		return 0, false
	}
	if _, err := h.docs.GetDocument(r.Context(), Projects.Collection, id); err != nil {
		h.storageError(w, r, Projects, err)
		return 0, false
	}
	return id, true
}

// canManageProject пропускает администратора и руководителя, назначенного
// на проект (managerId совпадает с его userId)
func (h *ResourceHandler) canManageProject(w http.ResponseWriter, r *http.Request, id int64) bool {
	ctx := r.Context()
	username, okUser := GetUsername(ctx)
	role, okRole := GetRole(ctx)
	if !okUser || !okRole {
		h.sendError(w, "missing identity", http.StatusUnauthorized)
		return false
	}

	doc, err := h.docs.GetDocument(ctx, Projects.Collection, id)
	if err != nil {
		h.storageError(w, r, Projects, err)
		return false
	}
	if role == models.RoleAdmin {
		return true
	}

	if role == models.RoleProjectManager {
		user, err := h.users.GetUserByUsername(ctx, username)
		if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
			h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
			return false
		}

		dec := json.NewDecoder(bytes.NewReader(doc.Data))
		dec.UseNumber()
		var project fields
		if user != nil && dec.Decode(&project) == nil {
			if managerID, ok := int64Field(project, "managerId"); ok && managerID == user.UserID {
				return true
			}
		}
	}

	h.logger.WarnContext(ctx, "project access denied",
		slog.String("username", username),
		slog.String("role", string(role)),
		slog.Int64("project_id", id))
	h.sendError(w, "access denied", http.StatusForbidden)
	return false
}

func (h *ResourceHandler) fillManagerName(w http.ResponseWriter, r *http.Request, body fields) bool {
	if _, present := body["managerId"]; !present {
		return true
	}

	managerID, ok := int64Field(body, "managerId")
	if !ok {
		h.sendError(w, "managerId must be an integer", http.StatusBadRequest)
		return false
	}
	if managerID == 0 {
		// проект без руководителя
		return true
	}

	manager, err := h.users.GetUserByID(r.Context(), managerID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, fmt.Sprintf("manager %d not found", managerID), http.StatusBadRequest)
			return false
		}
		h.logger.ErrorContext(r.Context(), "failed to get manager", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return false
	}

	body["managerFullName"] = manager.FullName
	return true
}

func (h *ResourceHandler) storageError(w http.ResponseWriter, r *http.Request, res Resource, err error) {
	switch {
	case errors.Is(err, storage.ErrDocumentNotFound):
		h.sendError(w, res.Noun+" not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidDocument):
		h.sendError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.ErrorContext(r.Context(), "document storage failure",
			slog.String("collection", res.Collection),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *ResourceHandler) notify(ctx context.Context, res Resource, action string, id int64) {
	if h.publisher == nil {
		return
	}
	h.publisher.Publish(ctx, api.Notification{
		Type:    res.Event + "_" + action,
		Message: fmt.Sprintf("%s #%d %s", res.Noun, id, strings.ToLower(action)),
	})
}

// int64Field читает целое поле, записанное числом или строкой
func int64Field(body fields, key string) (int64, bool) {
	switch v := body[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
