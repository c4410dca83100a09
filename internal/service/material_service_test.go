package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newMaterialServiceForTest() (MaterialService, *fakeMaterialRepo, *fakeStore) {
	repo := newFakeMaterialRepo()
	store := newFakeStore()
	svc := NewMaterialService(repo, store, "test-bucket", zerolog.Nop())
	return svc, repo, store
}

func pdf(name string) UploadFile {
	return UploadFile{Name: name, ContentType: "application/pdf", Size: 1024, Body: strings.NewReader("%PDF")}
}

func TestUploadStoresFilesAndMetadata(t *testing.T) {
	svc, repo, store := newMaterialServiceForTest()
	files := []UploadFile{pdf("intro.pdf"), pdf("outline.pdf")}

	uploaded, err := svc.Upload(context.Background(), "course-1", files)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if len(uploaded) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(uploaded))
	}
	if len(store.objects) != 2 {
		t.Fatalf("expected 2 stored objects, got %d", len(store.objects))
	}
	for i, m := range uploaded {
		if !strings.HasPrefix(m.StorageKey, "courses/course-1/materials/") {
			t.Fatalf("unexpected storage key %q", m.StorageKey)
		}
		if !strings.HasSuffix(m.StorageKey, ".pdf") {
			t.Fatalf("storage key should keep the extension, got %q", m.StorageKey)
		}
		if m.UploadOrder != i {
			t.Fatalf("expected upload order %d, got %d", i, m.UploadOrder)
		}
		if m.StorageBucket != "test-bucket" {
			t.Fatalf("expected bucket test-bucket, got %s", m.StorageBucket)
		}
	}
	if len(repo.materials) != 2 {
		t.Fatalf("expected 2 metadata rows, got %d", len(repo.materials))
	}
}

func TestUploadDisallowedTypeKeepsEarlierFiles(t *testing.T) {
	svc, repo, _ := newMaterialServiceForTest()
	files := []UploadFile{
		pdf("a.pdf"),
		{Name: "b.exe", ContentType: "application/x-msdownload", Size: 10, Body: strings.NewReader("MZ")},
		pdf("c.pdf"),
	}

	uploaded, err := svc.Upload(context.Background(), "course-1", files)
	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UploadError, got %v", err)
	}
	if !errors.Is(err, ErrDisallowedType) {
		t.Fatalf("expected ErrDisallowedType, got %v", err)
	}
	if upErr.Index != 1 || upErr.FileName != "b.exe" {
		t.Fatalf("expected failure at index 1 for b.exe, got %+v", upErr)
	}
	// The first file stays committed; the third is never attempted.
	if len(uploaded) != 1 {
		t.Fatalf("expected 1 committed material, got %d", len(uploaded))
	}
	if len(repo.materials) != 1 {
		t.Fatalf("expected 1 metadata row, got %d", len(repo.materials))
	}
}

func TestUploadLimits(t *testing.T) {
	svc, _, _ := newMaterialServiceForTest()
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "course-1", nil); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}

	many := make([]UploadFile, MaxUploadFiles+1)
	for i := range many {
		many[i] = pdf("f.pdf")
	}
	if _, err := svc.Upload(ctx, "course-1", many); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}

	big := pdf("big.pdf")
	big.Size = MaxUploadFileSize + 1
	if _, err := svc.Upload(ctx, "course-1", []UploadFile{big}); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestListReturnsSignedURLs(t *testing.T) {
	svc, _, _ := newMaterialServiceForTest()
	ctx := context.Background()
	if _, err := svc.Upload(ctx, "course-1", []UploadFile{pdf("a.pdf")}); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	materials, urls, err := svc.List(ctx, "course-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(materials) != 1 || len(urls) != 1 {
		t.Fatalf("expected 1 material and 1 url, got %d and %d", len(materials), len(urls))
	}
	if !strings.Contains(urls[0], materials[0].StorageKey) {
		t.Fatalf("signed url %q does not reference key %q", urls[0], materials[0].StorageKey)
	}
}

func TestDeleteRemovesBlobAndRow(t *testing.T) {
	svc, repo, store := newMaterialServiceForTest()
	ctx := context.Background()
	uploaded, err := svc.Upload(ctx, "course-1", []UploadFile{pdf("a.pdf")})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if err := svc.Delete(ctx, "course-1", uploaded[0].ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(store.objects) != 0 {
		t.Fatalf("expected blob removed, %d objects remain", len(store.objects))
	}
	if len(repo.materials) != 0 {
		t.Fatalf("expected row removed, %d rows remain", len(repo.materials))
	}

	if err := svc.Delete(ctx, "course-1", "missing"); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("expected ErrMaterialNotFound, got %v", err)
	}
}

func TestDeleteRejectsMaterialFromAnotherCourse(t *testing.T) {
	svc, repo, store := newMaterialServiceForTest()
	ctx := context.Background()
	uploaded, err := svc.Upload(ctx, "course-1", []UploadFile{pdf("a.pdf")})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if err := svc.Delete(ctx, "course-2", uploaded[0].ID); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("expected ErrMaterialNotFound, got %v", err)
	}
	if len(store.objects) != 1 {
		t.Fatalf("expected blob untouched, %d objects remain", len(store.objects))
	}
	if len(repo.materials) != 1 {
		t.Fatalf("expected row untouched, %d rows remain", len(repo.materials))
	}
}
