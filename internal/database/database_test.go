package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piscineiro/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	return db
}

func seedProvider(t *testing.T, db *DB) *models.Provider {
	p := &models.Provider{
		ID:           uuid.NewString(),
		Name:         "Carlos Mendes",
		Phone:        "+55 11 91234-5678",
		Email:        "carlos@example.com",
		City:         "São Paulo",
		State:        "SP",
		CitiesServed: []string{"São Paulo", "Guarulhos"},
		Hours:        models.WorkingHours{Start: "08:00", End: "18:00"},
		Services: []models.Service{
			{Description: "Limpeza completa", Price: 150},
			{Description: "Tratamento químico", Price: 90},
		},
		IsActive: true,
	}
	require.NoError(t, db.CreateProvider(context.Background(), p))
	return p
}

func seedClient(t *testing.T, db *DB, email string) *models.Client {
	c := &models.Client{
		ID:           uuid.NewString(),
		Name:         "Ana Souza",
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Phone:        "+55 11 99876-5432",
	}
	require.NoError(t, db.CreateClient(context.Background(), c))
	return c
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "db_test_dir")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.PingContext(context.Background())
	assert.NoError(t, err)
}
