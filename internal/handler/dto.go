package handler

import (
	"time"

	"github.com/danhyun/simpleshop/internal/domain"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// ProductImageDTO is the JSON representation of a product image.
type ProductImageDTO struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"imageUrl"`
	Position int    `json:"position"`
}

func toProductImageDTOs(images []domain.ProductImage) []ProductImageDTO {
	dtos := make([]ProductImageDTO, len(images))
	for i, img := range images {
		dtos[i] = ProductImageDTO{
			ID:       img.ID,
			ImageURL: img.ImageURL,
			Position: img.Position,
		}
	}
	return dtos
}

// ProductDTO is the JSON representation of a product.
type ProductDTO struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       int64             `json:"price"`
	WriterID    int64             `json:"writerId"`
	Images      []ProductImageDTO `json:"images"`
	CreatedAt   string            `json:"createdAt"`
	UpdatedAt   string            `json:"updatedAt"`
}

func toProductDTO(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		WriterID:    p.WriterID,
		Images:      toProductImageDTOs(p.Images),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

// ProductPageDTO is the JSON representation of one catalog page.
type ProductPageDTO struct {
	Items []ProductDTO `json:"items"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
	Total int          `json:"total"`
}

func toProductPageDTO(page *domain.ProductPage) ProductPageDTO {
	items := make([]ProductDTO, len(page.Items))
	for i := range page.Items {
		items[i] = toProductDTO(&page.Items[i])
	}
	return ProductPageDTO{
		Items: items,
		Page:  page.Page,
		Size:  page.Size,
		Total: page.Total,
	}
}
