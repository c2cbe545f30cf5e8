package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danhyun/simpleshop/internal/domain"
)

// ProductRepository implements domain.ProductRepository using SQLite.
// The product row and its image rows are read and written as one aggregate.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new SQLite-backed ProductRepository.
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db.SqlDB}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, description, price, writer_id, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		product.Name, product.Description, product.Price, product.WriterID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	product.ID = id
	product.Version = 1
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, writer_id, version, created_at, updated_at
		 FROM products WHERE id = ?`, id,
	).Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.WriterID, &product.Version, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query product by id: %w", err)
	}

	images, err := r.listImages(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Images = images
	return product, nil
}

func (r *ProductRepository) List(ctx context.Context, params domain.ListParams) (*domain.ProductPage, error) {
	var order string
	switch params.Sort {
	case domain.SortPriceAsc:
		order = "price ASC, id DESC"
	case domain.SortPriceDesc:
		order = "price DESC, id DESC"
	default:
		// Insertion recency. Unrecognized sort keys fall back here.
		order = "id DESC"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, price, writer_id, version, created_at, updated_at
		 FROM products ORDER BY `+order+` LIMIT ? OFFSET ?`,
		params.Size, params.Page*params.Size)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price,
			&p.WriterID, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	for i := range items {
		images, err := r.listImages(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Images = images
	}

	return &domain.ProductPage{
		Items: items,
		Page:  params.Page,
		Size:  params.Size,
		Total: total,
	}, nil
}

// Save persists the whole aggregate: the product row is updated guarded by
// its version, and the image rows are replaced with the in-memory list. A
// stale version means another writer saved first; the caller gets
// ErrConflict and should re-read and retry.
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		product.Name, product.Description, product.Price, now, product.ID, product.Version,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Either the product is gone or another writer bumped the version.
		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM products WHERE id = ?", product.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}

	// Image rows keep their identity across saves: rows still in the
	// in-memory list are updated in place, rows missing from it are
	// deleted, and entries without an ID are inserted. Clients hold image
	// ids, so an unrelated field update must not reassign them.
	keep := make(map[int64]bool, len(product.Images))
	for i := range product.Images {
		if product.Images[i].ID != 0 {
			keep[product.Images[i].ID] = true
		}
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT id FROM product_images WHERE product_id = ?", product.ID)
	if err != nil {
		return fmt.Errorf("list image ids: %w", err)
	}
	var removed []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan image id: %w", err)
		}
		if !keep[id] {
			removed = append(removed, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate image ids: %w", err)
	}
	rows.Close()

	for _, id := range removed {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM product_images WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete product image: %w", err)
		}
	}

	for i := range product.Images {
		img := &product.Images[i]
		if img.ID != 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE product_images SET image_url = ?, storage_key = ?, position = ?
				 WHERE id = ? AND product_id = ?`,
				img.ImageURL, img.StorageKey, img.Position, img.ID, product.ID,
			); err != nil {
				return fmt.Errorf("update product image: %w", err)
			}
			continue
		}

		createdAt := img.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO product_images (product_id, image_url, storage_key, position, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			product.ID, img.ImageURL, img.StorageKey, img.Position, createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("get last insert id: %w", err)
		}
		img.ID = id
		img.ProductID = product.ID
		img.CreatedAt = createdAt
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	product.Version++
	product.UpdatedAt = now
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	// Image rows cascade via the foreign key.
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) listImages(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, image_url, storage_key, position, created_at
		 FROM product_images WHERE product_id = ? ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	var images []domain.ProductImage
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.ImageURL,
			&img.StorageKey, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
