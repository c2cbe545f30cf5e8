package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/danhyun/simpleshop/internal/domain"
)

const (
	maxImageSize     = 10 * 1024 * 1024 // 10MB
	maxImagesPerItem = 10
)

// Upload is one file of an image upload batch.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageService is the product-image lifecycle manager. Every mutation keeps
// the image positions dense (0..N-1) and the aggregate is saved exactly once
// per operation. Nothing else in the application creates or deletes blobs
// for a product's images.
type ImageService struct {
	products domain.ProductRepository
	blobs    domain.BlobStore
}

// NewImageService creates a new ImageService.
func NewImageService(products domain.ProductRepository, blobs domain.BlobStore) *ImageService {
	return &ImageService{products: products, blobs: blobs}
}

// ReplaceAll replaces the product's whole image set with the given files,
// in input order, and returns the new image URLs.
//
// These are replace semantics without a transactional boundary: old blobs
// are deleted before the new files upload, and a mid-batch upload failure
// persists the images uploaded so far. Callers see the error; the product
// is left with the partial (still dense) list.
func (s *ImageService) ReplaceAll(ctx context.Context, productID, callerID int64, files []Upload) ([]string, error) {
	// Existence and ownership come before batch validation: a non-owner
	// learns nothing about what a valid batch looks like.
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.WriterID != callerID {
		return nil, domain.ErrForbidden
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one image file is required", domain.ErrInvalidInput)
	}
	if len(files) > maxImagesPerItem {
		return nil, fmt.Errorf("%w: maximum %d images per product", domain.ErrInvalidInput, maxImagesPerItem)
	}
	for _, f := range files {
		if f.ContentType != "image/jpeg" && f.ContentType != "image/png" {
			return nil, fmt.Errorf("%w: only JPEG and PNG images are accepted", domain.ErrInvalidInput)
		}
		if len(f.Data) > maxImageSize {
			return nil, fmt.Errorf("%w: image exceeds 10MB limit", domain.ErrInvalidInput)
		}
	}

	// Release the old blobs. Best-effort: a stuck object must not make the
	// product's images unreplaceable.
	for _, img := range product.Images {
		if err := s.blobs.Delete(ctx, img.StorageKey); err != nil {
			slog.Error("delete old image blob", "key", img.StorageKey, "error", err)
		}
	}
	product.Images = nil

	var uploadErr error
	for i, f := range files {
		key := storageKey(f.Filename)
		url, err := s.blobs.Put(ctx, key, f.Data, f.ContentType)
		if err != nil {
			uploadErr = fmt.Errorf("upload image %d: %w", i, err)
			break
		}
		product.Images = append(product.Images, domain.ProductImage{
			ImageURL:   url,
			StorageKey: key,
			Position:   i,
		})
	}

	// Save whatever made it, even on a partial batch, so the record matches
	// the store.
	if err := s.products.Save(ctx, product); err != nil {
		if uploadErr != nil {
			slog.Error("save partial image batch", "product_id", productID, "error", err)
			return nil, uploadErr
		}
		return nil, err
	}
	if uploadErr != nil {
		return nil, uploadErr
	}

	urls := make([]string, len(product.Images))
	for i, img := range product.Images {
		urls[i] = img.ImageURL
	}
	return urls, nil
}

// DeleteOne removes a single image, then renumbers the remaining images by
// ascending position so the sequence stays dense.
func (s *ImageService) DeleteOne(ctx context.Context, productID, imageID, callerID int64) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.WriterID != callerID {
		return domain.ErrForbidden
	}

	idx := -1
	for i, img := range product.Images {
		if img.ID == imageID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: image %d", domain.ErrNotFound, imageID)
	}

	// Blob first: if the store refuses, the record stays untouched.
	if err := s.blobs.Delete(ctx, product.Images[idx].StorageKey); err != nil {
		return fmt.Errorf("delete image blob: %w", err)
	}

	product.Images = append(product.Images[:idx], product.Images[idx+1:]...)
	sort.Slice(product.Images, func(i, j int) bool {
		return product.Images[i].Position < product.Images[j].Position
	})
	for i := range product.Images {
		product.Images[i].Position = i
	}

	return s.products.Save(ctx, product)
}

// DeleteProductCascade deletes the product and all of its images. Blob
// deletions are best-effort so a dead object store cannot leave the product
// undeletable; failures are logged.
func (s *ImageService) DeleteProductCascade(ctx context.Context, productID, callerID int64) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.WriterID != callerID {
		return domain.ErrForbidden
	}

	for _, img := range product.Images {
		if err := s.blobs.Delete(ctx, img.StorageKey); err != nil {
			slog.Error("delete image blob on cascade", "key", img.StorageKey, "error", err)
		}
	}

	return s.products.Delete(ctx, productID)
}

// storageKey builds a unique object key; the original filename is kept as a
// suffix for operator-friendly listings.
func storageKey(filename string) string {
	return "product-images/" + uuid.NewString() + "_" + filename
}
