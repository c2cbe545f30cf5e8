package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/danhyun/simpleshop/internal/domain"
	"github.com/danhyun/simpleshop/internal/repository/sqlite"
	"github.com/danhyun/simpleshop/internal/service"
)

// fakeBlobStore records puts and deletes in memory. failPutAfter makes Put
// fail once that many uploads have succeeded; failDelete makes every Delete
// fail.
type fakeBlobStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	deleted      []string
	puts         int
	failPutAfter int
	failDelete   bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}, failPutAfter: -1}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPutAfter >= 0 && f.puts >= f.failPutAfter {
		return "", fmt.Errorf("%w: object store rejected the upload", domain.ErrUnavailable)
	}
	f.puts++
	f.objects[key] = bytes.Clone(data)
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return fmt.Errorf("%w: object store is down", domain.ErrUnavailable)
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobStore) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestCatalog(t *testing.T) (*service.ProductService, *service.ImageService, *fakeBlobStore, *sqlite.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	blobs := newFakeBlobStore()
	images := service.NewImageService(db.Products(), blobs)
	products := service.NewProductService(db.Products(), images)
	return products, images, blobs, db
}

func createTestUser(t *testing.T, db *sqlite.DB, email string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, Nickname: "Tester", PasswordHash: "x"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func jpeg(name string) service.Upload {
	return service.Upload{Filename: name, ContentType: "image/jpeg", Data: []byte("jpegdata")}
}

func TestImageService_ReplaceAll(t *testing.T) {
	products, images, blobs, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")

	product, err := products.Create(ctx, owner.ID, "Lamp", "A lamp", 1000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	urls, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{
		jpeg("a.jpg"), jpeg("b.jpg"), jpeg("c.jpg"),
	})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 urls, got %d", len(urls))
	}

	got, err := products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(got.Images))
	}
	for i, img := range got.Images {
		if img.Position != i {
			t.Fatalf("image %d has position %d", i, img.Position)
		}
		if img.ImageURL != urls[i] {
			t.Fatalf("image %d url %q, want %q", i, img.ImageURL, urls[i])
		}
	}
	if blobs.stored() != 3 {
		t.Fatalf("expected 3 stored blobs, got %d", blobs.stored())
	}
}

func TestImageService_ReplaceAll_DeletesOldBlobs(t *testing.T) {
	products, images, blobs, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")

	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)
	if _, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{jpeg("old.jpg")}); err != nil {
		t.Fatalf("first ReplaceAll: %v", err)
	}
	if _, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{jpeg("new1.jpg"), jpeg("new2.jpg")}); err != nil {
		t.Fatalf("second ReplaceAll: %v", err)
	}

	if len(blobs.deleted) != 1 {
		t.Fatalf("expected 1 deleted blob, got %d", len(blobs.deleted))
	}
	if blobs.stored() != 2 {
		t.Fatalf("expected 2 stored blobs, got %d", blobs.stored())
	}
}

func TestImageService_ReplaceAll_PartialFailurePersists(t *testing.T) {
	products, images, blobs, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")

	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)
	blobs.failPutAfter = 2

	_, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{
		jpeg("a.jpg"), jpeg("b.jpg"), jpeg("c.jpg"), jpeg("d.jpg"),
	})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	// The two uploads that made it are persisted, still dense from zero.
	got, err := products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Images) != 2 {
		t.Fatalf("expected 2 persisted images, got %d", len(got.Images))
	}
	for i, img := range got.Images {
		if img.Position != i {
			t.Fatalf("image %d has position %d", i, img.Position)
		}
	}
}

func TestImageService_ReplaceAll_Validation(t *testing.T) {
	products, images, _, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	tooMany := make([]service.Upload, 11)
	for i := range tooMany {
		tooMany[i] = jpeg(fmt.Sprintf("f%d.jpg", i))
	}
	huge := jpeg("huge.jpg")
	huge.Data = make([]byte, 10*1024*1024+1)

	tests := []struct {
		name  string
		files []service.Upload
	}{
		{"empty batch", nil},
		{"too many files", tooMany},
		{"unsupported type", []service.Upload{{Filename: "x.gif", ContentType: "image/gif", Data: []byte("gif")}}},
		{"oversized file", []service.Upload{huge}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := images.ReplaceAll(ctx, product.ID, owner.ID, tc.files)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestImageService_ReplaceAll_OwnershipBeforeValidation(t *testing.T) {
	products, images, _, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	// A malformed batch from the wrong caller is still a 403, not a 400.
	_, err := images.ReplaceAll(ctx, product.ID, other.ID, nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-owner with empty batch: expected ErrForbidden, got %v", err)
	}

	// And against an absent product it is a 404.
	_, err = images.ReplaceAll(ctx, 99999, owner.ID, nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("absent product with empty batch: expected ErrNotFound, got %v", err)
	}
}

func TestImageService_DeleteOne_SurvivesProductUpdate(t *testing.T) {
	products, images, _, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	if _, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{jpeg("a.jpg")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	got, _ := products.GetByID(ctx, product.ID)
	imageID := got.Images[0].ID

	// An unrelated field update must not invalidate the id the client holds.
	name := "Desk Lamp"
	if _, err := products.Update(ctx, owner.ID, product.ID, service.UpdateFields{Name: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := images.DeleteOne(ctx, product.ID, imageID, owner.ID); err != nil {
		t.Fatalf("DeleteOne with pre-update image id: %v", err)
	}

	got, _ = products.GetByID(ctx, product.ID)
	if len(got.Images) != 0 {
		t.Fatalf("expected no images left, got %d", len(got.Images))
	}
}

func TestImageService_ReplaceAll_Forbidden(t *testing.T) {
	products, images, _, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	_, err := images.ReplaceAll(ctx, product.ID, other.ID, []service.Upload{jpeg("a.jpg")})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestImageService_DeleteOne_Renumbers(t *testing.T) {
	products, images, blobs, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	if _, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{
		jpeg("a.jpg"), jpeg("b.jpg"), jpeg("c.jpg"),
	}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, _ := products.GetByID(ctx, product.ID)
	middle := got.Images[1]

	if err := images.DeleteOne(ctx, product.ID, middle.ID, owner.ID); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}

	got, _ = products.GetByID(ctx, product.ID)
	if len(got.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(got.Images))
	}
	for i, img := range got.Images {
		if img.Position != i {
			t.Fatalf("image %d has position %d after delete", i, img.Position)
		}
		if img.ID == middle.ID {
			t.Fatal("deleted image still present")
		}
	}
	if blobs.stored() != 2 {
		t.Fatalf("expected 2 stored blobs, got %d", blobs.stored())
	}
}

func TestImageService_DeleteOne_UnknownImage(t *testing.T) {
	products, images, _, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	err := images.DeleteOne(ctx, product.ID, 999, owner.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImageService_DeleteOne_BlobFailureLeavesRecord(t *testing.T) {
	products, images, blobs, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	if _, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{jpeg("a.jpg")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	got, _ := products.GetByID(ctx, product.ID)
	blobs.failDelete = true

	err := images.DeleteOne(ctx, product.ID, got.Images[0].ID, owner.ID)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	got, _ = products.GetByID(ctx, product.ID)
	if len(got.Images) != 1 {
		t.Fatalf("record changed despite blob failure: %d images", len(got.Images))
	}
}

func TestImageService_DeleteProductCascade(t *testing.T) {
	products, images, blobs, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	if _, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{jpeg("a.jpg"), jpeg("b.jpg")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if err := images.DeleteProductCascade(ctx, product.ID, owner.ID); err != nil {
		t.Fatalf("DeleteProductCascade: %v", err)
	}

	if _, err := products.GetByID(ctx, product.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected product gone, got %v", err)
	}
	if blobs.stored() != 0 {
		t.Fatalf("expected all blobs released, got %d", blobs.stored())
	}
}

func TestImageService_DeleteProductCascade_BlobFailureStillDeletes(t *testing.T) {
	products, images, blobs, db := newTestCatalog(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	product, _ := products.Create(ctx, owner.ID, "Lamp", "", 1000)

	if _, err := images.ReplaceAll(ctx, product.ID, owner.ID, []service.Upload{jpeg("a.jpg")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	blobs.failDelete = true

	if err := images.DeleteProductCascade(ctx, product.ID, owner.ID); err != nil {
		t.Fatalf("DeleteProductCascade: %v", err)
	}
	if _, err := products.GetByID(ctx, product.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected product gone, got %v", err)
	}
}
