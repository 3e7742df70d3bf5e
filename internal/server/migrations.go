package server

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/hunter-local/newsgraph/internal/util"
	"github.com/hunter-local/newsgraph/pkg/logger"
)

// runMigrations applies pending schema migrations with the admin credentials
// before the server starts serving.
func runMigrations() {
	source := util.GetEnvString("MIGRATIONS_PATH", "file://migrations")
	m, err := migrate.New(source, util.GetEnv("DATABASE_ADMIN_URL"))
	if err != nil {
		logger.Fatal("Failed to initialize migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Database schema up to date")
			return
		}
		logger.Fatal("Failed to apply migrations", "err", err)
	}
	logger.Info("Database migrations applied")
}
