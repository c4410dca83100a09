package repository

import (
	"context"
	"database/sql"
	"errors"

	"coursehub/internal/model"
)

type MaterialRepository interface {
	CreateMaterial(ctx context.Context, m *model.CourseMaterial) error
	// ListByCourse returns materials ordered by upload order then creation time.
	ListByCourse(ctx context.Context, courseID string) ([]model.CourseMaterial, error)
	GetByID(ctx context.Context, materialID string) (*model.CourseMaterial, error)
	Delete(ctx context.Context, materialID string) error
	// ListKeysByCourse returns the storage keys of all materials of a course.
	ListKeysByCourse(ctx context.Context, courseID string) ([]string, error)
}

type materialRepo struct {
	db *sql.DB
}

func NewMaterialRepo(db *sql.DB) MaterialRepository {
	return &materialRepo{db: db}
}

func (r *materialRepo) CreateMaterial(ctx context.Context, m *model.CourseMaterial) error {
	query := `
		INSERT INTO course_materials (course_id, file_name, file_type, file_size, storage_key, storage_bucket, upload_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		m.CourseID, m.FileName, m.FileType, m.FileSize, m.StorageKey, m.StorageBucket, m.UploadOrder,
	).Scan(&m.ID, &m.CreatedAt)
}

func (r *materialRepo) ListByCourse(ctx context.Context, courseID string) ([]model.CourseMaterial, error) {
	query := `
		SELECT id, course_id, file_name, file_type, file_size, storage_key, storage_bucket, upload_order, created_at
		FROM course_materials
		WHERE course_id = $1
		ORDER BY upload_order, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := []model.CourseMaterial{}
	for rows.Next() {
		var m model.CourseMaterial
		if err := rows.Scan(
			&m.ID, &m.CourseID, &m.FileName, &m.FileType, &m.FileSize,
			&m.StorageKey, &m.StorageBucket, &m.UploadOrder, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *materialRepo) GetByID(ctx context.Context, materialID string) (*model.CourseMaterial, error) {
	var m model.CourseMaterial
	query := `
		SELECT id, course_id, file_name, file_type, file_size, storage_key, storage_bucket, upload_order, created_at
		FROM course_materials WHERE id = $1
	`
	err := r.db.QueryRowContext(ctx, query, materialID).Scan(
		&m.ID, &m.CourseID, &m.FileName, &m.FileType, &m.FileSize,
		&m.StorageKey, &m.StorageBucket, &m.UploadOrder, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *materialRepo) Delete(ctx context.Context, materialID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM course_materials WHERE id = $1`, materialID)
	return err
}

func (r *materialRepo) ListKeysByCourse(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT storage_key FROM course_materials WHERE course_id = $1`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
