package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies the embedded migrations for the store's engine. A database
// that is already up to date is not an error.
func (s *Store) Migrate() error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion reports the applied migration version and whether the
// last migration left the database dirty. Version 0 means none applied.
func (s *Store) MigrationVersion() (uint, bool, error) {
	m, err := s.migrator()
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return v, dirty, nil
}

func (s *Store) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations/"+s.engine)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	var drv database.Driver
	switch s.engine {
	case "postgres":
		drv, err = pgxmigrate.WithInstance(s.db, &pgxmigrate.Config{})
	case "mysql":
		drv, err = mysql.WithInstance(s.db, &mysql.Config{})
	case "sqlite":
		drv, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	default:
		err = fmt.Errorf("unsupported engine: %s", s.engine)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, s.engine, drv)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}
