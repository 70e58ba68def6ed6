package database

import (
	"path/filepath"
	"testing"

	"github.com/microsolutions/showcase/internal/config"
	"github.com/microsolutions/showcase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLiteMigrates(t *testing.T) {
	cfg := &config.AppConfig{
		Env: "production",
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "nested", "showcase.db"),
		},
	}

	db, err := Connect(cfg, true)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	for _, table := range []any{
		&models.SolutionModel{}, &models.SolutionImage{}, &models.CompanyInfoModel{},
		&models.ContactInfoModel{}, &models.StatisticsModel{}, &models.AdminUserModel{},
		&models.AssetReferenceModel{},
	} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}
