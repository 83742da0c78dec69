package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImporterStore handles database operations for importer identities
type ImporterStore struct {
	db *DB
}

var _ ImporterRepository = (*ImporterStore)(nil)

func NewImporterStore(db *DB) *ImporterStore {
	return &ImporterStore{db: db}
}

func (r *ImporterStore) GetImporter(importerID string) (*Importer, error) {
	return r.getImporterWhere("id = ?", importerID)
}

func (r *ImporterStore) GetImporterByUsername(username string) (*Importer, error) {
	return r.getImporterWhere("username = ?", username)
}

func (r *ImporterStore) getImporterWhere(condition string, arg any) (*Importer, error) {
	var importer Importer
	err := r.db.QueryRow(`
		SELECT id, username, name, created_at FROM importers WHERE `+condition, arg,
	).Scan(&importer.ID, &importer.Username, &importer.Name, &importer.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get importer: %w", err)
	}

	return &importer, nil
}

// CreateImporter fails with ErrDuplicateUsername when username is taken.
func (r *ImporterStore) CreateImporter(username, name string) (*Importer, error) {
	importer := &Importer{
		ID:        uuid.NewString(),
		Username:  username,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(`
		INSERT INTO importers (id, username, name, created_at) VALUES (?, ?, ?, ?)
	`, importer.ID, importer.Username, importer.Name, importer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
		}
		return nil, fmt.Errorf("failed to create importer: %w", err)
	}

	return importer, nil
}
