package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const migrationsPath = "file://store/migrations"

func migrateUp(cfg Config) error {
	m, err := migrate.New(migrationsPath, "mysql://"+cfg.dsn())
	if err != nil {
		return fmt.Errorf("error initializing migrations: %s", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error applying migrations: %s", err)
	}
	return nil
}
