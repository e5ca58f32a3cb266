// Package store holds the gateway's stats-database connection and the
// query-log schema: one row per client query plus one row per indexer
// attempt and per selection error within it. Connect opens the database
// and applies the migrations; no code in the module writes rows.
package store

import (
	"fmt"
	"sync"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	"github.com/pkg/errors"
)

var (
	mu sync.RWMutex
	db *gorm.DB
)

// Config names the fields Connect needs to reach the stats database.
type Config struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

func (c Config) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// Connect opens the stats database connection and runs pending migrations.
func Connect(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	conn, err := gorm.Open("mysql", cfg.dsn())
	if err != nil {
		return errors.Wrapf(err, "error connecting to stats database at %s:%d", cfg.Host, cfg.Port)
	}
	conn.SingularTable(true)
	db = conn

	if err := migrateUp(cfg); err != nil {
		return errors.Wrap(err, "error running stats database migrations")
	}
	return nil
}

// DB returns the open stats database handle, or an error if Connect has
// not been called yet.
func DB() (*gorm.DB, error) {
	mu.RLock()
	defer mu.RUnlock()
	if db == nil {
		return nil, errors.New("stats database is not connected")
	}
	return db, nil
}

// Close closes the stats database connection.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}
