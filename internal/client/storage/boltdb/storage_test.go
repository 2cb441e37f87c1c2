package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestNew_Success(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "testdb.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() {
		require.NoError(t, store.Close())
	}()

	// Проверяем что файл БД действительно создан
	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	// Проверяем, что bucket существует
	err = store.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSession) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	ctx := context.Background()
	// Путь внутри несуществующей директории
	invalidPath := filepath.Join(t.TempDir(), "missing", "dir", "test.db")
	store, err := New(ctx, invalidPath)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "testdb.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)

	err = store.Close()
	assert.NoError(t, err)

	// После закрытия поле db должно стать nil
	assert.Nil(t, store.db)

	// Второй вызов Close не должен падать
	err = store.Close()
	assert.NoError(t, err)
}

func TestInitBuckets_CreatesBuckets(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "testdb.db")

	// Открываем БД вручную без создания бакетов
	db, err := bbolt.Open(dbPath, 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	store := &Storage{db: db}

	err = store.initBuckets()
	assert.NoError(t, err)

	err = db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSession) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	assert.NoError(t, err)

	// Повторная инициализация идемпотентна
	assert.NoError(t, store.initBuckets())
}
