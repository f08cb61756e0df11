package database

import (
	"context"
	"path/filepath"
	"testing"

	"notepin/notepin/config"
	"notepin/notepin/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func sqliteConfig(t *testing.T) config.Config {
	return config.Config{
		AppEnv:         "test",
		DBDriver:       "sqlite",
		DBPath:         filepath.Join(t.TempDir(), "notes.db"),
		DBMaxIdleConns: 1,
		DBMaxOpenConns: 1,
	}
}

func TestSetup_Sqlite(t *testing.T) {
	database, err := Setup(sqliteConfig(t))
	require.NoError(t, err)
	defer database.Close()

	migrator := database.DB.Migrator()
	assert.True(t, migrator.HasTable(&models.Note{}))
	assert.True(t, migrator.HasTable(&models.Event{}))
	assert.True(t, migrator.HasColumn(&models.Note{}, "updated_at"))
	assert.True(t, migrator.HasIndex(&models.Note{}, "Trashed"))
	assert.NoError(t, database.Ping(context.Background()))
}

func TestSetup_MigrationsAreRepeatable(t *testing.T) {
	cfg := sqliteConfig(t)

	first, err := Setup(cfg)
	require.NoError(t, err)
	require.NoError(t, first.DB.Create(&models.Note{ID: uuid.New(), Title: "kept", Color: "yellow", Tags: []string{}}).Error)
	first.Close()

	second, err := Setup(cfg)
	require.NoError(t, err)
	defer second.Close()

	var count int64
	require.NoError(t, second.DB.Model(&models.Note{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSetup_UnknownDriver(t *testing.T) {
	_, err := Setup(config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestPing_Closed(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	database := &Database{DB: db}
	database.Close()

	assert.Error(t, database.Ping(context.Background()))
}

func TestOpenSQLite_LowerFoldsUnicode(t *testing.T) {
	db, err := gorm.Open(OpenSQLite(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	database := &Database{DB: db}
	defer database.Close()

	var got string
	require.NoError(t, db.Raw("SELECT lower(?)", "Émile ÜBER CAFÉ").Scan(&got).Error)
	assert.Equal(t, "émile über café", got)

	var null *string
	require.NoError(t, db.Raw("SELECT lower(NULL)").Scan(&null).Error)
	assert.Nil(t, null)
}

func TestClose_NilConnection(t *testing.T) {
	assert.NotPanics(t, func() {
		(&Database{}).Close()
	})
}
