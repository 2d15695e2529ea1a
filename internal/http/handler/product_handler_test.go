package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/productapp/catalog-backend/internal/domain"
	"github.com/productapp/catalog-backend/internal/repository"
	"github.com/productapp/catalog-backend/internal/service"
)

type stubCatalogService struct {
	listResult   []domain.Product
	listErr      error
	createResult *domain.Product
	createErr    error
	createInput  service.CreateProductInput
	updateResult *domain.Product
	updateErr    error
	updateID     uint
	updateInput  service.UpdateProductInput
	deleteErr    error
	deleteID     uint
}

func (s *stubCatalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.listResult, s.listErr
}

func (s *stubCatalogService) Create(ctx context.Context, input service.CreateProductInput) (*domain.Product, error) {
	s.createInput = input
	return s.createResult, s.createErr
}

func (s *stubCatalogService) Update(ctx context.Context, id uint, input service.UpdateProductInput) (*domain.Product, error) {
	s.updateID = id
	s.updateInput = input
	return s.updateResult, s.updateErr
}

func (s *stubCatalogService) DeleteByID(ctx context.Context, id uint) error {
	s.deleteID = id
	return s.deleteErr
}

func newProductRouter(svc *stubCatalogService) http.Handler {
	h := NewProductHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

func multipartProductBody(t *testing.T, fields map[string]string, imageName string, imageBytes []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if imageName != "" {
		part, err := w.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(imageBytes); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestProductHandlerListReturnsRawArray(t *testing.T) {
	svc := &stubCatalogService{listResult: []domain.Product{
		{ID: 2, Name: "Notebook", Price: 4.5, Quantity: 3, Category: "stationery"},
		{ID: 1, Name: "Pen", Price: 1.5, Quantity: 100, Category: "stationery"},
	}}
	router := newProductRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var listed []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("expected top-level JSON array, got %q: %v", rr.Body.String(), err)
	}
	if len(listed) != 2 || listed[0]["name"] != "Notebook" {
		t.Fatalf("unexpected listing: %v", listed)
	}
	if listed[1]["image"] != domain.DefaultImagePath {
		t.Fatalf("expected default image path in JSON, got %v", listed[1]["image"])
	}
}

func TestProductHandlerCreateMultipart(t *testing.T) {
	svc := &stubCatalogService{createResult: &domain.Product{
		ID: 7, Name: "Pen", Price: 1.5, Quantity: 100, Category: "Stationery",
		Image: domain.UploadedImage("/uploads/1700000000000-pen.png"),
	}}
	router := newProductRouter(svc)

	body, contentType := multipartProductBody(t, map[string]string{
		"name": "Pen", "price": "1.5", "quantity": "100", "category": "Stationery",
	}, "pen.png", []byte("\x89PNG\r\n\x1a\nxxxx"))
	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if svc.createInput.Name != "Pen" || svc.createInput.Price != 1.5 || svc.createInput.Quantity != 100 {
		t.Fatalf("unexpected parsed input: %+v", svc.createInput)
	}
	if svc.createInput.Image == nil || svc.createInput.Image.Filename != "pen.png" {
		t.Fatalf("expected image upload to reach the service, got %+v", svc.createInput.Image)
	}

	var created map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created: %v", err)
	}
	if created["image"] != "/uploads/1700000000000-pen.png" {
		t.Fatalf("unexpected image in response: %v", created["image"])
	}
}

func TestProductHandlerCreateWithoutImage(t *testing.T) {
	svc := &stubCatalogService{createResult: &domain.Product{ID: 1, Name: "Pen", Price: 1.5, Quantity: 100, Category: "Stationery"}}
	router := newProductRouter(svc)

	body, contentType := multipartProductBody(t, map[string]string{
		"name": "Pen", "price": "1.5", "quantity": "100", "category": "Stationery",
	}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if svc.createInput.Image != nil {
		t.Fatalf("expected no image upload, got %+v", svc.createInput.Image)
	}
}

func TestProductHandlerCreateErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing fields", service.ErrProductMissingFields, http.StatusBadRequest},
		{"file too big", service.ErrFileTooBig, http.StatusBadRequest},
		{"bad file type", service.ErrInvalidFileType, http.StatusBadRequest},
		{"storage failure", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCatalogService{createErr: tc.err}
			router := newProductRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Pen","price":1.5,"quantity":100,"category":"Stationery"}`))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d body=%s", tc.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestProductHandlerUpdate(t *testing.T) {
	svc := &stubCatalogService{updateResult: &domain.Product{ID: 3, Name: "Pen v2", Price: 2, Quantity: 50, Category: "Stationery"}}
	router := newProductRouter(svc)

	body, contentType := multipartProductBody(t, map[string]string{
		"name": "Pen v2", "price": "2", "quantity": "50", "category": "Stationery",
	}, "", nil)
	req := httptest.NewRequest(http.MethodPut, "/api/products/3", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if svc.updateID != 3 {
		t.Fatalf("expected update id 3, got %d", svc.updateID)
	}
}

func TestProductHandlerUpdateNotFound(t *testing.T) {
	svc := &stubCatalogService{updateErr: repository.ErrProductNotFound}
	router := newProductRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/products/99", strings.NewReader(`{"name":"Pen","price":1.5,"quantity":1,"category":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestProductHandlerDelete(t *testing.T) {
	svc := &stubCatalogService{}
	router := newProductRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/products/5", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if svc.deleteID != 5 {
		t.Fatalf("expected delete id 5, got %d", svc.deleteID)
	}

	svc.deleteErr = repository.ErrProductNotFound
	req = httptest.NewRequest(http.MethodDelete, "/api/products/5", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on missing product, got %d", rr.Code)
	}
}

func TestProductHandlerRejectsBadID(t *testing.T) {
	svc := &stubCatalogService{}
	router := newProductRouter(svc)

	for _, target := range []string{"/api/products/abc", "/api/products/0", "/api/products/-1"} {
		req := httptest.NewRequest(http.MethodDelete, target, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rr.Code)
		}
	}
}
