package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vbonduro/clandphoto/internal/domain"
)

type PhotoStore struct {
	db *sql.DB
}

func NewPhotoStore(db *sql.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

const photoColumns = `id, image_url, taken_at, user_id, description, tags, vehicle_model, license_plate, location`

// Append inserts a committed record. Records are never updated afterwards.
func (s *PhotoStore) Append(ctx context.Context, p domain.PhotoEntry) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.ImageURL, p.Timestamp.UnixMilli(), p.UserID, p.Description, string(encoded),
		p.VehicleModel, p.LicensePlate, p.Location)
	if err != nil {
		return fmt.Errorf("failed to append photo: %w", err)
	}
	return nil
}

func (s *PhotoStore) GetByID(ctx context.Context, id string) (*domain.PhotoEntry, error) {
	p, err := scanPhoto(s.db.QueryRowContext(ctx, `
		SELECT `+photoColumns+` FROM photos WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return p, nil
}

// List returns records in the order they were appended.
func (s *PhotoStore) List(ctx context.Context) ([]*domain.PhotoEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+photoColumns+` FROM photos ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer closeRows(rows)

	var photos []*domain.PhotoEntry
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

func (s *PhotoStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM photos WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return expectOneRow(result, ErrPhotoNotFound)
}

func (s *PhotoStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM photos`); err != nil {
		return fmt.Errorf("failed to delete photos: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*domain.PhotoEntry, error) {
	p := &domain.PhotoEntry{}
	var takenAt int64
	var tags string
	if err := row.Scan(&p.ID, &p.ImageURL, &takenAt, &p.UserID, &p.Description, &tags,
		&p.VehicleModel, &p.LicensePlate, &p.Location); err != nil {
		return nil, err
	}
	p.Timestamp = time.UnixMilli(takenAt)
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for photo %s: %w", p.ID, err)
	}
	return p, nil
}
