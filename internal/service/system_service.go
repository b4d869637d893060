package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/database"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	features map[string]bool
}

// NewSystemService creates a new SystemService. features lists optional
// components and whether they are enabled in this deployment.
func NewSystemService(db *sql.DB, features map[string]bool) *SystemService {
	f := make(map[string]bool, len(features))
	for k, v := range features {
		f[k] = v
	}
	return &SystemService{
		db:       db,
		features: f,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application and schema versions and whether migrations are pending.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	dbVersion, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("failed to get schema version: %w", err)
	}

	pending, err := database.HasPending(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("failed to check pending migrations: %w", err)
	}

	info := model.VersionInfo{
		AppVersion:      version.Version,
		DbVersion:       strconv.FormatInt(dbVersion, 10),
		Features:        s.features,
		MigrationNeeded: pending,
	}
	if pending {
		msg := "Database schema is behind the application; restart to apply migrations"
		info.MigrationMessage = &msg
	}
	return info, nil
}
