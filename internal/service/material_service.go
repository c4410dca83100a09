package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"coursehub/internal/model"
	"coursehub/internal/repository"
	"coursehub/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Upload limits and the MIME allowlist for course materials.
const (
	MaxUploadFiles    = 10
	MaxUploadFileSize = 500 << 20 // 500 MB per file
	signedURLTTL      = time.Hour
)

var allowedMaterialTypes = map[string]bool{
	"application/pdf": true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"image/jpeg": true,
	"image/png":  true,
}

var (
	// ErrMaterialNotFound is returned when the material row is absent.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrNoFiles is returned for an upload request without files.
	ErrNoFiles = errors.New("no files uploaded")
	// ErrTooManyFiles caps a single upload request.
	ErrTooManyFiles = fmt.Errorf("too many files: maximum %d allowed", MaxUploadFiles)
	// ErrFileTooLarge caps individual file size.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
	// ErrDisallowedType rejects files outside the MIME allowlist.
	ErrDisallowedType = errors.New("invalid file type: only PDF, videos, images, and presentations allowed")
)

// UploadFile is one file of a multipart upload request.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadError reports which file of a batch failed. Materials staged before
// the failing file stay committed.
type UploadError struct {
	Index    int
	FileName string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("file %q (index %d): %v", e.FileName, e.Index, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// MaterialService manages course material blobs and their metadata rows.
type MaterialService interface {
	// Upload stores each file and inserts its metadata row sequentially.
	// On failure the already-uploaded materials are returned along with an
	// *UploadError naming the failing file; there is no rollback.
	Upload(ctx context.Context, courseID string, files []UploadFile) ([]model.CourseMaterial, error)
	// List returns material metadata with time-limited download URLs.
	List(ctx context.Context, courseID string) ([]model.CourseMaterial, []string, error)
	// Delete removes the blob then the metadata row. The material must
	// belong to the given course.
	Delete(ctx context.Context, courseID, materialID string) error
}

type materialService struct {
	repo   repository.MaterialRepository
	store  storage.ObjectStore
	bucket string
	logger zerolog.Logger
}

// NewMaterialService creates a new MaterialService
func NewMaterialService(repo repository.MaterialRepository, store storage.ObjectStore, bucket string, logger zerolog.Logger) MaterialService {
	return &materialService{
		repo:   repo,
		store:  store,
		bucket: bucket,
		logger: logger.With().Str("service", "MaterialService").Logger(),
	}
}

func (s *materialService) Upload(ctx context.Context, courseID string, files []UploadFile) ([]model.CourseMaterial, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > MaxUploadFiles {
		return nil, ErrTooManyFiles
	}

	uploaded := []model.CourseMaterial{}
	for i, file := range files {
		if err := validateUploadFile(file); err != nil {
			return uploaded, &UploadError{Index: i, FileName: file.Name, Err: err}
		}

		key := fmt.Sprintf("courses/%s/materials/%s%s", courseID, uuid.NewString(), filepath.Ext(file.Name))
		if err := s.store.Put(ctx, key, file.ContentType, file.Body); err != nil {
			s.logger.Error().Err(err).Str("course_id", courseID).Str("file", file.Name).Msg("Failed to upload material")
			return uploaded, &UploadError{Index: i, FileName: file.Name, Err: err}
		}

		material := model.CourseMaterial{
			CourseID:      courseID,
			FileName:      file.Name,
			FileType:      file.ContentType,
			FileSize:      file.Size,
			StorageKey:    key,
			StorageBucket: s.bucket,
			UploadOrder:   i,
		}
		if err := s.repo.CreateMaterial(ctx, &material); err != nil {
			s.logger.Error().Err(err).Str("course_id", courseID).Str("file", file.Name).Msg("Failed to save material metadata")
			return uploaded, &UploadError{Index: i, FileName: file.Name, Err: err}
		}
		uploaded = append(uploaded, material)
	}
	return uploaded, nil
}

func validateUploadFile(file UploadFile) error {
	if !allowedMaterialTypes[file.ContentType] {
		return ErrDisallowedType
	}
	if file.Size > MaxUploadFileSize {
		return ErrFileTooLarge
	}
	return nil
}

func (s *materialService) List(ctx context.Context, courseID string) ([]model.CourseMaterial, []string, error) {
	materials, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("list materials: %w", err)
	}
	urls := make([]string, len(materials))
	for i, m := range materials {
		url, err := s.store.SignedGetURL(ctx, m.StorageKey, signedURLTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("sign download URL for %s: %w", m.ID, err)
		}
		urls[i] = url
	}
	return materials, urls, nil
}

func (s *materialService) Delete(ctx context.Context, courseID, materialID string) error {
	material, err := s.repo.GetByID(ctx, materialID)
	if err != nil {
		return fmt.Errorf("fetch material: %w", err)
	}
	// A material reached through another course's path is treated as
	// absent, so material ids cannot be used to cross course ownership.
	if material == nil || material.CourseID != courseID {
		return ErrMaterialNotFound
	}
	if err := s.store.Delete(ctx, material.StorageKey); err != nil {
		return fmt.Errorf("delete material blob: %w", err)
	}
	if err := s.repo.Delete(ctx, materialID); err != nil {
		return fmt.Errorf("delete material row: %w", err)
	}
	return nil
}
