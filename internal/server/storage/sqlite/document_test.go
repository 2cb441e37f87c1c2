package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/labdesk/internal/server/storage"
)

func decode(t *testing.T, data json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestDocumentStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	doc, err := s.CreateDocument(ctx, "projects", "projectId",
		json.RawMessage(`{"projectName":"Alpha","status":"Запланирован","managerId":3}`))
	require.NoError(t, err)

	assert.Equal(t, "projects", doc.Collection)
	assert.Positive(t, doc.ID)

	fields := decode(t, doc.Data)
	assert.Equal(t, "Alpha", fields["projectName"])
	assert.Equal(t, float64(doc.ID), fields["projectId"], "id is written into the object")

	got, err := s.GetDocument(ctx, "projects", doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(doc.Data), string(got.Data))

	// Документ другой коллекции не виден
	_, err = s.GetDocument(ctx, "equipment", doc.ID)
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
}

func TestDocumentStorage_CreateInvalid(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		name    string
		data    string
		idField string
	}{
		{name: "array", data: `[1,2]`, idField: "id"},
		{name: "scalar", data: `"text"`, idField: "id"},
		{name: "null", data: `null`, idField: "id"},
		{name: "broken json", data: `{"a":`, idField: "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateDocument(ctx, "things", tt.idField, json.RawMessage(tt.data))
			assert.ErrorIs(t, err, storage.ErrInvalidDocument)
		})
	}

	_, err := s.CreateDocument(ctx, "things", "bad field", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestDocumentStorage_ListWithFilter(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	for _, body := range []string{
		`{"title":"t1","projectId":1}`,
		`{"title":"t2","projectId":2}`,
		`{"title":"t3","projectId":"1"}`,
		`{"title":"t4"}`,
	} {
		_, err := s.CreateDocument(ctx, "tasks", "taskId", json.RawMessage(body))
		require.NoError(t, err)
	}

	all, err := s.ListDocuments(ctx, "tasks", nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	filtered, err := s.ListDocuments(ctx, "tasks", map[string]string{"projectId": "1"})
	require.NoError(t, err)
	require.Len(t, filtered, 2, "number and string values compare as text")
	assert.Equal(t, "t1", decode(t, filtered[0].Data)["title"])
	assert.Equal(t, "t3", decode(t, filtered[1].Data)["title"])

	none, err := s.ListDocuments(ctx, "projects", nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = s.ListDocuments(ctx, "tasks", map[string]string{"x') OR 1=1 --": "1"})
	assert.Error(t, err)
}

func TestDocumentStorage_Patch(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	doc, err := s.CreateDocument(ctx, "equipment", "equipmentId",
		json.RawMessage(`{"name":"Микроскоп","location":"101","availabilityStatus":"Доступно"}`))
	require.NoError(t, err)

	patched, err := s.PatchDocument(ctx, "equipment", doc.ID,
		json.RawMessage(`{"availabilityStatus":"В ремонте","location":null}`))
	require.NoError(t, err)

	fields := decode(t, patched.Data)
	assert.Equal(t, "Микроскоп", fields["name"])
	assert.Equal(t, "В ремонте", fields["availabilityStatus"])
	assert.NotContains(t, fields, "location", "null removes the field")
	assert.Equal(t, float64(doc.ID), fields["equipmentId"])

	_, err = s.PatchDocument(ctx, "equipment", doc.ID+100, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	_, err = s.PatchDocument(ctx, "equipment", doc.ID, json.RawMessage(`[]`))
	assert.ErrorIs(t, err, storage.ErrInvalidDocument)
}

func TestDocumentStorage_Delete(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	doc, err := s.CreateDocument(ctx, "publications", "publicationId", json.RawMessage(`{"title":"Статья"}`))
	require.NoError(t, err)

	require.NoError(t, s.DeleteDocument(ctx, "publications", doc.ID))
	assert.ErrorIs(t, s.DeleteDocument(ctx, "publications", doc.ID), storage.ErrDocumentNotFound)

	_, err = s.GetDocument(ctx, "publications", doc.ID)
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
}

func TestDocumentStorage_DeleteDocuments(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	for _, body := range []string{
		`{"userId":1,"projectId":7}`,
		`{"userId":2,"projectId":7}`,
		`{"userId":1,"projectId":8}`,
	} {
		_, err := s.CreateDocument(ctx, "team", "memberId", json.RawMessage(body))
		require.NoError(t, err)
	}

	n, err := s.DeleteDocuments(ctx, "team", map[string]string{"projectId": "7"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rest, err := s.ListDocuments(ctx, "team", nil)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestDocumentStorage_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	project, err := s.CreateDocument(ctx, "projects", "projectId", json.RawMessage(`{"projectName":"Alpha"}`))
	require.NoError(t, err)
	other, err := s.CreateDocument(ctx, "projects", "projectId", json.RawMessage(`{"projectName":"Beta"}`))
	require.NoError(t, err)

	ref := func(id int64) json.RawMessage {
		return json.RawMessage(fmt.Sprintf(`{"projectId":%d}`, id))
	}
	for _, id := range []int64{project.ID, project.ID, other.ID} {
		_, err := s.CreateDocument(ctx, "tasks", "taskId", ref(id))
		require.NoError(t, err)
		_, err = s.CreateDocument(ctx, "team", "memberId", ref(id))
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteCascade(ctx, "projects", project.ID, "projectId", []string{"tasks", "team", "budgets"}))

	_, err = s.GetDocument(ctx, "projects", project.ID)
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	for _, collection := range []string{"tasks", "team"} {
		rest, err := s.ListDocuments(ctx, collection, nil)
		require.NoError(t, err)
		require.Len(t, rest, 1, collection)
		assert.EqualValues(t, other.ID, decode(t, rest[0].Data)["projectId"])
	}

	assert.ErrorIs(t, s.DeleteCascade(ctx, "projects", project.ID, "projectId", []string{"tasks"}),
		storage.ErrDocumentNotFound)
}

func TestDocumentStorage_DeleteCascade_RollsBack(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	project, err := s.CreateDocument(ctx, "projects", "projectId", json.RawMessage(`{"projectName":"Alpha"}`))
	require.NoError(t, err)
	_, err = s.CreateDocument(ctx, "tasks", "taskId", json.RawMessage(fmt.Sprintf(`{"projectId":%d}`, project.ID)))
	require.NoError(t, err)

	// Невалидное поле ссылки обнаруживается после удаления проекта
	err = s.DeleteCascade(ctx, "projects", project.ID, "project id", []string{"tasks"})
	require.Error(t, err)

	_, err = s.GetDocument(ctx, "projects", project.ID)
	assert.NoError(t, err, "project survives a failed cascade")
	tasks, err := s.ListDocuments(ctx, "tasks", nil)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}
