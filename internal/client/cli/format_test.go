package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/labdesk/internal/client/api"
	"github.com/iudanet/labdesk/internal/client/auth"
	"github.com/iudanet/labdesk/internal/client/iocli"
	"github.com/iudanet/labdesk/internal/models"
	pkgapi "github.com/iudanet/labdesk/pkg/api"
)

func TestReadPassword_Priority(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pw")
	require.NoError(t, os.WriteFile(file, []byte("from-file\r\n"), 0o600))

	tests := []struct {
		name  string
		env   string
		file  string
		flag  string
		stdin string
		want  string
	}{
		{name: "env wins", env: "from-env", file: file, flag: "from-flag", want: "from-env"},
		{name: "file before flag", file: file, flag: "from-flag", want: "from-file"},
		{name: "flag", flag: "from-flag", stdin: "typed\n", want: "from-flag"},
		{name: "prompt", stdin: "typed\n", want: "typed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(PasswordEnv, tt.env)

			var out bytes.Buffer
			c := New(iocli.New(strings.NewReader(tt.stdin), &out, &out), "test")

			got, err := c.readPassword(tt.flag, tt.file, "Password: ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		t.Setenv(PasswordEnv, "")
		c := New(iocli.New(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}), "test")

		_, err := c.readPassword("", filepath.Join(t.TempDir(), "none"), "Password: ")
		assert.ErrorContains(t, err, "failed to read password file")
	})
}

func TestNeedsSignIn(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "not authenticated", err: auth.ErrNotAuthenticated, want: true},
		{name: "session invalid", err: fmt.Errorf("whoami: %w", auth.ErrSessionInvalid), want: true},
		{name: "unauthorized response", err: &api.APIError{StatusCode: 401}, want: true},
		{name: "forbidden", err: &api.APIError{StatusCode: 403}, want: false},
		{name: "access denied", err: auth.ErrAccessDenied, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsSignIn(tt.err))
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID(" 42 ", "task")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, in := range []string{"", "0", "-3", "x1"} {
		_, err := parseID(in, "task")
		assert.ErrorContains(t, err, "invalid task id", in)
	}
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, validateDate("start", ""))
	assert.NoError(t, validateDate("start", "2026-02-28"))
	assert.ErrorContains(t, validateDate("start", "2026-02-30"), "--start")
	assert.ErrorContains(t, validateDate("end", "28.02.2026"), "--end")
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Name"}, [][]string{{"1", "Alpha"}, {"2", "Бета"}})

	for _, want := range []string{"ID", "Name", "Alpha", "Бета"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Alpha"), strings.Index(out, "Бета"), "rows keep their order")
}

func TestPrintTable_Empty(t *testing.T) {
	var out bytes.Buffer
	c := New(iocli.New(strings.NewReader(""), &out, &out), "test")

	c.printTable("Nothing here.", []string{"ID"}, nil)
	assert.Contains(t, out.String(), "Nothing here.")
	assert.NotContains(t, out.String(), "ID")
}

func TestRenderWhoami(t *testing.T) {
	user := &models.User{Username: "alice", FullName: "Alice A", Email: "a@example.com", Role: models.RoleProjectManager}

	out, err := renderWhoami(user, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "Руководитель проекта")
	assert.Contains(t, out, "Expires:   never")

	exp := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	out, err = renderWhoami(user, exp.Unix())
	require.NoError(t, err)
	assert.Contains(t, out, exp.Local().Format(time.RFC3339))
}

func TestRenderProject(t *testing.T) {
	overview := &models.ProjectOverview{
		Project: &models.Project{ProjectName: "Alpha", Status: models.ProjectPlanned, StartDate: "2026-01-01"},
		Budget:  &models.ProjectBudget{AllocatedAmount: 100, SpentAmount: 25.5},
	}

	out, err := renderProject(overview)
	require.NoError(t, err)
	assert.Contains(t, out, "Запланирован")
	assert.Contains(t, out, "Manager:     -")
	assert.Contains(t, out, "2026-01-01 .. -")
	assert.Contains(t, out, "allocated 100.00, spent 25.50, remaining 74.50")

	overview.Budget = nil
	out, err = renderProject(overview)
	require.NoError(t, err)
	assert.NotContains(t, out, "Budget:")
}

func TestNotification(t *testing.T) {
	var out bytes.Buffer
	c := New(iocli.New(strings.NewReader(""), &out, &out), "test")

	c.notification(pkgapi.Notification{Type: "PROJECT_DELETED", Message: "project #3 deleted"})
	c.notification(pkgapi.Notification{Type: "BACKUP_CREATED", Message: "Backup created"})

	assert.Contains(t, out.String(), "PROJECT_DELETED")
	assert.Contains(t, out.String(), "project #3 deleted")
	assert.Contains(t, out.String(), "BACKUP_CREATED")
}

func TestWhoami_ExpiredTokenWarns(t *testing.T) {
	ts := startServer(t)
	op := ts.operator(t)
	op.signUp(t, "nina", "researcher")

	var out, errOut bytes.Buffer
	c := New(iocli.New(strings.NewReader(""), &out, &errOut), "test")
	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	code := c.Execute(t.Context(), append(op.globalArgs(), "whoami"))
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Token has expired")
	assert.Contains(t, out.String(), "nina", "expired tokens are kept, the server decides")
}
