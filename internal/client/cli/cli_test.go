package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/labdesk/internal/client/iocli"
	"github.com/iudanet/labdesk/internal/config"
	"github.com/iudanet/labdesk/internal/crypto"
	"github.com/iudanet/labdesk/internal/server"
	pkgapi "github.com/iudanet/labdesk/pkg/api"
)

var testHashParams = crypto.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

// lockedBuffer - буфер, в который listen пишет из другой горутины
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testServer struct {
	app *server.App
	srv *httptest.Server
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LABDESK_API_URL", "LABDESK_PUSH_URL", "LABDESK_DB",
		"LABDESK_HTTP_TIMEOUT", "LABDESK_LOG_LEVEL", PasswordEnv,
	} {
		t.Setenv(key, "")
	}
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	clearEnv(t)

	dir := t.TempDir()
	cfg := &config.Server{
		Addr:             "127.0.0.1:0",
		DBPath:           filepath.Join(dir, "server.db"),
		BackupDir:        filepath.Join(dir, "backups"),
		JWTSecret:        "test-secret-key-that-is-long-enough!",
		TokenTTL:         time.Hour,
		RateLimitAuth:    100,
		RateLimitDefault: 1000,
	}

	app, err := server.NewApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
		server.WithHashParams(testHashParams), server.WithVersion("test"))
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})

	return &testServer{app: app, srv: srv}
}

// operator - консоль одного пользователя со своим файлом сессии
type operator struct {
	ts     *testServer
	dbPath string
}

func (ts *testServer) operator(t *testing.T) *operator {
	return &operator{ts: ts, dbPath: filepath.Join(t.TempDir(), "console.db")}
}

func (o *operator) globalArgs() []string {
	return []string{
		"--api-url", o.ts.srv.URL + "/api",
		"--push-url", "ws" + strings.TrimPrefix(o.ts.srv.URL, "http") + "/ws",
		"--db", o.dbPath,
	}
}

type result struct {
	stdout string
	stderr string
	code   int
}

func (o *operator) runWithInput(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var out, errOut bytes.Buffer
	c := New(iocli.New(strings.NewReader(stdin), &out, &errOut), "test")
	code := c.Execute(context.Background(), append(o.globalArgs(), args...))

	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}

func (o *operator) run(t *testing.T, args ...string) result {
	t.Helper()
	return o.runWithInput(t, "", args...)
}

// mustRun выполняет команду и требует нулевой код выхода
func (o *operator) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	res := o.run(t, args...)
	require.Equal(t, 0, res.code, "labdesk %s\nstdout: %s\nstderr: %s", strings.Join(args, " "), res.stdout, res.stderr)
	return res.stdout
}

func (o *operator) signUp(t *testing.T, username, role string) {
	t.Helper()
	out := o.mustRun(t, "signup",
		"--username", username,
		"--full-name", "User "+username,
		"--email", username+"@example.com",
		"--role", role,
		"--password", "password123")
	require.Contains(t, out, "Registered and signed in as "+username)
}

func TestCli_SignUpWhoamiSignOut(t *testing.T) {
	ts := startServer(t)
	op := ts.operator(t)

	op.signUp(t, "alice", "researcher")

	out := op.mustRun(t, "whoami")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "User alice")
	assert.Contains(t, out, "Научный сотрудник")
	assert.NotContains(t, out, "expired")

	out = op.mustRun(t, "signout")
	assert.Contains(t, out, "Signed out")

	res := op.run(t, "whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not authenticated")
	assert.Contains(t, res.stderr, "labdesk signin")
}

func TestCli_SignInPasswordSources(t *testing.T) {
	ts := startServer(t)
	op := ts.operator(t)
	op.signUp(t, "bob", "PROJECT_MANAGER")
	op.mustRun(t, "signout")

	t.Run("interactive prompt", func(t *testing.T) {
		res := op.runWithInput(t, "bob\npassword123\n", "signin")
		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "Username: ")
		assert.Contains(t, res.stdout, "Signed in as bob")
	})

	t.Run("password file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "pw")
		require.NoError(t, os.WriteFile(file, []byte("password123\n"), 0o600))

		out := op.mustRun(t, "signin", "-u", "bob", "--password-file", file)
		assert.Contains(t, out, "Signed in as bob")
	})

	t.Run("wrong password", func(t *testing.T) {
		res := op.run(t, "signin", "-u", "bob", "--password", "wrong-password")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "labdesk signin")
	})
}

func TestCli_SignUpValidation(t *testing.T) {
	ts := startServer(t)
	op := ts.operator(t)

	res := op.run(t, "signup", "-u", "carol", "--full-name", "Carol", "--email", "not-an-email",
		"--role", "researcher", "--password", "password123")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid email")

	res = op.run(t, "signup", "-u", "carol", "--full-name", "Carol", "--email", "c@example.com",
		"--role", "janitor", "--password", "password123")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid role")
}

func TestCli_ProjectsFlow(t *testing.T) {
	ts := startServer(t)

	member := ts.operator(t)
	member.signUp(t, "dave", "researcher")

	manager := ts.operator(t)
	manager.signUp(t, "erin", "project_manager")

	out := manager.mustRun(t, "projects", "create", "--name", "Quantum dots",
		"--description", "Synthesis", "--start", "2026-01-10", "--end", "2026-12-20")
	assert.Regexp(t, `Project #\d+ "Quantum dots" created`, out)
	projectID := regexp.MustCompile(`Project #(\d+)`).FindStringSubmatch(out)[1]

	out = manager.mustRun(t, "projects", "list")
	assert.Contains(t, out, "Quantum dots")
	assert.Contains(t, out, "User erin", "manager name is filled by the backend")
	assert.Contains(t, out, "Запланирован")

	// Проекты руководителя видны ему, но не попадают в чужую выборку по managerId
	other := ts.operator(t)
	other.signUp(t, "frank", "project_manager")
	out = other.mustRun(t, "projects", "list")
	assert.Contains(t, out, "No projects found.")

	out = member.mustRun(t, "projects", "list", "--status", "planned")
	assert.Contains(t, out, "Quantum dots", "researchers see all projects")

	manager.mustRun(t, "tasks", "add", "--project", projectID, "--title", "Order reagents", "--due", "2026-02-01")
	out = manager.mustRun(t, "tasks", "list", "--project", projectID)
	assert.Contains(t, out, "Order reagents")
	assert.Contains(t, out, "2026-02-01")

	out = manager.mustRun(t, "team", "add", projectID, "--username", "dave", "--role", "Chemist")
	assert.Contains(t, out, "User dave joined project #"+projectID)
	out = manager.mustRun(t, "team", "list", projectID)
	assert.Contains(t, out, "Chemist")

	out = manager.mustRun(t, "budget", "show", projectID)
	assert.Contains(t, out, "0.00")

	manager.mustRun(t, "budget", "set", projectID, "--allocated", "1000")
	out = manager.mustRun(t, "budget", "set", projectID, "--spent", "1250.5")
	assert.Contains(t, out, "allocated 1000.00, spent 1250.50")
	assert.Contains(t, out, "Budget overrun by 250.50")

	manager.mustRun(t, "funding", "add", "--name", "Science Foundation")

	out = manager.mustRun(t, "projects", "status", projectID, "in-progress")
	assert.Contains(t, out, "В процессе")

	out = manager.mustRun(t, "projects", "show", projectID)
	assert.Contains(t, out, "Quantum dots")
	assert.Contains(t, out, "В процессе")
	assert.Contains(t, out, "allocated 1000.00, spent 1250.50, remaining -250.50")
	assert.Contains(t, out, "Order reagents")
	assert.Contains(t, out, "Chemist")
	assert.Contains(t, out, "Science Foundation")

	out = manager.mustRun(t, "projects", "delete", projectID)
	assert.Contains(t, out, "Project #"+projectID+" deleted")

	res := manager.run(t, "projects", "show", projectID)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not found")
}

func TestCli_ProjectArgumentErrors(t *testing.T) {
	ts := startServer(t)
	op := ts.operator(t)
	op.signUp(t, "gina", "admin")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing name", args: []string{"projects", "create"}, want: "--name is required"},
		{name: "bad date", args: []string{"projects", "create", "--name", "X", "--start", "10.01.2026"}, want: "YYYY-MM-DD"},
		{name: "bad status", args: []string{"projects", "create", "--name", "X", "--status", "frozen"}, want: "unknown project status"},
		{name: "bad id", args: []string{"projects", "show", "abc"}, want: "invalid project id"},
		{name: "team without user", args: []string{"team", "add", "1"}, want: "--user-id or --username"},
		{name: "budget without amounts", args: []string{"budget", "set", "1"}, want: "nothing to change"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := op.run(t, tt.args...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestCli_ProjectRoles(t *testing.T) {
	ts := startServer(t)

	owner := ts.operator(t)
	owner.signUp(t, "olga", "project_manager")
	out := owner.mustRun(t, "projects", "create", "--name", "Perovskites")
	projectID := regexp.MustCompile(`Project #(\d+)`).FindStringSubmatch(out)[1]

	researcher := ts.operator(t)
	researcher.signUp(t, "petr", "researcher")
	other := ts.operator(t)
	other.signUp(t, "rita", "project_manager")

	tests := []struct {
		op   *operator
		name string
		args []string
	}{
		{name: "researcher create", op: researcher, args: []string{"projects", "create", "--name", "Rogue"}},
		{name: "researcher status", op: researcher, args: []string{"projects", "status", projectID, "completed"}},
		{name: "researcher delete", op: researcher, args: []string{"projects", "delete", projectID}},
		{name: "other manager status", op: other, args: []string{"projects", "status", projectID, "completed"}},
		{name: "other manager delete", op: other, args: []string{"projects", "delete", projectID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.op.run(t, tt.args...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, "access denied")
			assert.NotContains(t, res.stderr, "labdesk signin")
		})
	}

	out = owner.mustRun(t, "projects", "list")
	assert.Contains(t, out, "Perovskites")
	assert.Contains(t, out, "Запланирован", "denied status change is not applied")
	assert.NotContains(t, out, "Rogue")

	admin := ts.operator(t)
	admin.signUp(t, "sasha", "admin")
	out = admin.mustRun(t, "projects", "status", projectID, "completed")
	assert.Contains(t, out, "Завершен")
	out = admin.mustRun(t, "projects", "delete", projectID)
	assert.Contains(t, out, "Project #"+projectID+" deleted")
}

func TestCli_NotSignedIn(t *testing.T) {
	ts := startServer(t)
	op := ts.operator(t)

	res := op.run(t, "equipment", "list")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "labdesk signin")
}

func TestCli_PublicationsAndEquipment(t *testing.T) {
	ts := startServer(t)
	op := ts.operator(t)
	op.signUp(t, "hank", "researcher")

	out := op.mustRun(t, "publications", "add", "--title", "On dots", "--date", "2026-05-01",
		"--file-link", "a.pdf", "--file-link", "b.pdf")
	pubID := regexp.MustCompile(`Publication #(\d+)`).FindStringSubmatch(out)[1]

	op.mustRun(t, "publications", "update", pubID, "--link", "https://doi.org/10.1/x")
	out = op.mustRun(t, "publications", "list")
	assert.Contains(t, out, "On dots", "unchanged fields survive an update")
	assert.Contains(t, out, "https://doi.org/10.1/x")
	assert.Contains(t, out, "2026-05-01")

	res := op.run(t, "publications", "update", "999999", "--title", "Ghost")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "publication #999999")

	op.mustRun(t, "publications", "delete", pubID)
	out = op.mustRun(t, "publications", "list")
	assert.Contains(t, out, "No publications found.")

	out = op.mustRun(t, "equipment", "add", "--name", "Spectrometer", "--location", "Lab 3")
	eqID := regexp.MustCompile(`Equipment #(\d+)`).FindStringSubmatch(out)[1]

	out = op.mustRun(t, "equipment", "list", "--status", "available")
	assert.Contains(t, out, "Spectrometer")

	op.mustRun(t, "equipment", "update", eqID, "--status", "IN_REPAIR")
	out = op.mustRun(t, "equipment", "list", "--status", "available")
	assert.Contains(t, out, "No equipment found.")
	out = op.mustRun(t, "equipment", "list")
	assert.Contains(t, out, "IN_REPAIR")
	assert.Contains(t, out, "Lab 3")

	out = op.mustRun(t, "equipment", "delete", eqID)
	assert.Contains(t, out, "Equipment #"+eqID+" deleted")
}

func TestCli_Backups(t *testing.T) {
	ts := startServer(t)

	researcher := ts.operator(t)
	researcher.signUp(t, "ivan", "researcher")
	res := researcher.run(t, "backups", "list")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "access denied")

	admin := ts.operator(t)
	admin.signUp(t, "judy", "admin")

	out := admin.mustRun(t, "backups", "list")
	assert.Contains(t, out, "No backups yet.")

	out = admin.mustRun(t, "backups", "create")
	name := regexp.MustCompile(`backup-\d{8}-\d{6}-\d{3}\.db`).FindString(out)
	require.NotEmpty(t, name, out)

	out = admin.mustRun(t, "backups", "list")
	assert.Contains(t, out, name)

	target := filepath.Join(t.TempDir(), "copy.db")
	out = admin.mustRun(t, "backups", "download", name, "-o", target)
	assert.Contains(t, out, "Downloaded "+name)
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("SQLite format 3")))

	missing := filepath.Join(t.TempDir(), "missing.db")
	res = admin.run(t, "backups", "download", "backup-20000101-000000-000.db", "-o", missing)
	assert.Equal(t, 1, res.code)
	assert.NoFileExists(t, missing, "partial download is removed")

	// Неудачная загрузка не трогает существующий файл
	existing := filepath.Join(t.TempDir(), "keep.db")
	require.NoError(t, os.WriteFile(existing, []byte("precious"), 0o600))
	res = admin.run(t, "backups", "download", "backup-20000101-000000-000.db", "-o", existing)
	assert.Equal(t, 1, res.code)
	content, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(content))
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(existing), ".labdesk-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary download file is removed")

	// Без подтверждения восстановление отменяется
	res = admin.runWithInput(t, "n\n", "backups", "restore", name)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Restore cancelled.")

	// Пользователь, созданный после снимка, пропадает после восстановления
	late := ts.operator(t)
	late.signUp(t, "kate", "researcher")

	out = admin.mustRun(t, "backups", "restore", name, "--yes")
	assert.Contains(t, out, "Database restored from "+name)

	res = late.run(t, "whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not found")
}

func TestCli_Listen(t *testing.T) {
	ts := startServer(t)
	op := ts.operator(t)
	op.signUp(t, "leo", "researcher")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &lockedBuffer{}
	var errOut bytes.Buffer
	c := New(iocli.New(strings.NewReader(""), out, &errOut), "test")

	done := make(chan int, 1)
	go func() {
		done <- c.Execute(ctx, append(op.globalArgs(), "listen"))
	}()

	require.Eventually(t, func() bool {
		return ts.app.Hub().Subscribers(pkgapi.NotificationsTopic) == 1
	}, 5*time.Second, 10*time.Millisecond)

	writer := ts.operator(t)
	writer.signUp(t, "mia", "researcher")
	writer.mustRun(t, "equipment", "add", "--name", "Microscope")

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "EQUIPMENT_CREATED")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "equipment #")

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code, errOut.String())
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not stop")
	}
}

func TestCli_InvalidConfiguration(t *testing.T) {
	clearEnv(t)

	var out, errOut bytes.Buffer
	c := New(iocli.New(strings.NewReader(""), &out, &errOut), "test")
	code := c.Execute(context.Background(), []string{
		"--api-url", "ftp://example.com", "--db", filepath.Join(t.TempDir(), "c.db"), "whoami",
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "invalid configuration")
}
