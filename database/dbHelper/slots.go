package dbHelper

import (
	"database/sql"
	"github.com/jmoiron/sqlx"
)

func GetSlot(db sqlx.Queryer, key string) ([]byte, bool, error) {
	SQL := `SELECT value FROM slots WHERE key = $1`
	var value []byte
	err := sqlx.Get(db, &value, SQL, key)
	if err != nil && err != sql.ErrNoRows {
		return nil, false, err
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return value, true, nil
}

func UpsertSlot(db sqlx.Ext, key string, value []byte) error {
	SQL := `INSERT INTO slots(key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = Now()`
	_, err := db.Exec(SQL, key, value)
	return err
}

func DeleteSlot(db sqlx.Ext, key string) error {
	SQL := `DELETE FROM slots WHERE key = $1`
	_, err := db.Exec(SQL, key)
	return err
}
