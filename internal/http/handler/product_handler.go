package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/productapp/catalog-backend/internal/http/response"
	"github.com/productapp/catalog-backend/internal/observability"
	"github.com/productapp/catalog-backend/internal/repository"
	"github.com/productapp/catalog-backend/internal/service"
)

// multipartParseMemory bounds the in-memory part of multipart parsing; the
// overflow spills to temp files, and the actual file size cap lives in the
// asset store.
const multipartParseMemory = 8 << 20

type ProductHandler struct {
	svc service.CatalogServiceInterface
}

func NewProductHandler(svc service.CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, upload, cleanup, err := parseProductForm(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	defer cleanup()

	created, err := h.svc.Create(r.Context(), service.CreateProductInput{
		Name:     fields.Name,
		Price:    fields.Price,
		Quantity: fields.Quantity,
		Category: fields.Category,
		Image:    upload,
	})
	if err != nil {
		writeProductError(w, r, err, "failed to create product")
		return
	}

	observability.Audit(r, "product.create",
		"id", created.ID,
		"name", created.Name,
		"image", created.Image.Path())
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	fields, upload, cleanup, err := parseProductForm(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	defer cleanup()

	updated, err := h.svc.Update(r.Context(), productID, service.UpdateProductInput{
		Name:     fields.Name,
		Price:    fields.Price,
		Quantity: fields.Quantity,
		Category: fields.Category,
		Image:    upload,
	})
	if err != nil {
		writeProductError(w, r, err, "failed to update product")
		return
	}

	observability.Audit(r, "product.update",
		"id", productID,
		"name", strings.TrimSpace(updated.Name),
		"image", updated.Image.Path())
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}

	if err := h.svc.DeleteByID(r.Context(), productID); err != nil {
		writeProductError(w, r, err, "failed to delete product")
		return
	}

	observability.Audit(r, "product.delete", "id", productID)
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "Product deleted successfully"})
}

type productFormFields struct {
	Name     string
	Price    float64
	Quantity int
	Category string
}

// parseProductForm accepts the catalog's multipart form (with an optional
// image part) or a plain JSON body for clients that send no file. The cleanup
// func closes the uploaded file part once the handler is done with it.
func parseProductForm(r *http.Request) (productFormFields, *service.ImageUpload, func(), error) {
	noop := func() {}

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var body struct {
			Name     string  `json:"name"`
			Price    float64 `json:"price"`
			Quantity int     `json:"quantity"`
			Category string  `json:"category"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return productFormFields{}, nil, noop, err
		}
		return productFormFields{Name: body.Name, Price: body.Price, Quantity: body.Quantity, Category: body.Category}, nil, noop, nil
	}

	if err := r.ParseMultipartForm(multipartParseMemory); err != nil {
		return productFormFields{}, nil, noop, err
	}

	fields := productFormFields{
		Name:     r.FormValue("name"),
		Category: r.FormValue("category"),
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return productFormFields{}, nil, noop, err
		}
		fields.Price = price
	}
	if raw := strings.TrimSpace(r.FormValue("quantity")); raw != "" {
		quantity, err := strconv.Atoi(raw)
		if err != nil {
			return productFormFields{}, nil, noop, err
		}
		fields.Quantity = quantity
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return fields, nil, noop, nil
	}
	if err != nil {
		return productFormFields{}, nil, noop, err
	}

	upload := &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}
	return fields, upload, func() { closeFormFile(file) }, nil
}

func closeFormFile(file multipart.File) {
	_ = file.Close()
}

func writeProductError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductMissingFields),
		errors.Is(err, service.ErrFileTooBig),
		errors.Is(err, service.ErrInvalidFileType):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, repository.ErrProductNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}

func parsePathID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
