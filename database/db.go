package database

import (
	"encoding/json"
	"fmt"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"vital_geo/database/dbHelper"
)

type SSLMode string

const (
	SSLModeEnable  SSLMode = "enable"
	SSLModeDisable SSLMode = "disable"
)

// SQLStore keeps slots in a postgres table, for deployments where several
// storefront processes should share one cart/likes state.
type SQLStore struct {
	db *sqlx.DB
}

func ConnectAndMigrate(host, port, databaseName, user, password string, sslMode SSLMode, migrations string) (*SQLStore, error) {
	conStr := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s", host, port, databaseName, user, password, sslMode)
	db, err := sqlx.Open("postgres", conStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if err := migrateUp(db, migrations); err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func migrateUp(db *sqlx.DB, migrations string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrations,
		"postgres", driver)

	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func (s *SQLStore) Load(key string, v interface{}) (bool, error) {
	data, found, err := dbHelper.GetSlot(s.db, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to decode slot %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLStore) Save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", key, err)
	}
	return s.Tx(func(tx *sqlx.Tx) error {
		return dbHelper.UpsertSlot(tx, key, data)
	})
}

func (s *SQLStore) Remove(key string) error {
	return dbHelper.DeleteSlot(s.db, key)
}

// Tx provides the transaction wrapper
func (s *SQLStore) Tx(fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start a transaction: %+v", err)
	}
	defer func() {
		if err != nil {
			if rollBackErr := tx.Rollback(); rollBackErr != nil {
				logrus.Errorf("failed to rollback tx: %s", rollBackErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			logrus.Errorf("failed to commit tx: %s", commitErr)
			err = commitErr
		}
	}()
	err = fn(tx)
	return err
}

func (s *SQLStore) Close() {
	if err := s.db.Close(); err != nil {
		logrus.Errorf("failed to close db: %v", err)
	}
}
