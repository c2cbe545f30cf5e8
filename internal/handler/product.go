package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/danhyun/simpleshop/internal/service"
)

// ProductHandler handles catalog HTTP requests.
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// HandleCreate registers a new product owned by the caller.
// POST /api/products
// Request:  {"name":"...","description":"...","price":123}
// Response: 200 {"product": {...}}
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       int64  `json:"price"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	product, err := h.products.Create(r.Context(), principal.UserID, req.Name, req.Description, req.Price)
	if err != nil {
		writeDomainError(w, err, "create product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product": toProductDTO(product),
	})
}

// HandleList returns one page of products.
// GET /api/products?page=0&size=10&sortBy=latest
// Response: 200 {"items":[...],"page":0,"size":10,"total":42}
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 0
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be an integer.")
			return
		}
		page = n
	}
	size := 0
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "size must be an integer.")
			return
		}
		size = n
	}

	result, err := h.products.List(r.Context(), page, size, q.Get("sortBy"))
	if err != nil {
		writeDomainError(w, err, "list products")
		return
	}

	writeJSON(w, http.StatusOK, toProductPageDTO(result))
}

// HandleGet returns a single product with its images.
// GET /api/products/{id}
// Response: 200 {"product": {...}}
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "get product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product": toProductDTO(product),
	})
}

// HandleUpdate applies a partial update to a product the caller owns.
// Absent fields keep their prior value.
// PUT /api/products/{id}
// Request:  {"name":"...","description":"...","price":123} (all optional)
// Response: 200 {"product": {...}}
func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	id, ok := productID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Price       *int64  `json:"price"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	product, err := h.products.Update(r.Context(), principal.UserID, id, service.UpdateFields{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeDomainError(w, err, "update product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product": toProductDTO(product),
	})
}

// HandleDelete removes a product the caller owns, images included.
// DELETE /api/products/{id}
// Response: 200 {"status":"ok"}
func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	id, ok := productID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id.")
		return
	}

	if err := h.products.Delete(r.Context(), principal.UserID, id); err != nil {
		writeDomainError(w, err, "delete product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
