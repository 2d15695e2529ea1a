package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/productapp/catalog-backend/internal/database"
	"github.com/productapp/catalog-backend/internal/domain"
	"github.com/productapp/catalog-backend/internal/http/handler"
	"github.com/productapp/catalog-backend/internal/http/router"
	"github.com/productapp/catalog-backend/internal/repository"
	"github.com/productapp/catalog-backend/internal/service"
)

type catalogTestEnv struct {
	baseURL   string
	uploadDir string
}

func newCatalogTestServer(t *testing.T) *catalogTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	uploadDir := t.TempDir()
	store, err := service.NewLocalAssetStore(uploadDir, service.DefaultMaxImageSize)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "default-product.png"), pngFixtureBytes(), 0o644); err != nil {
		t.Fatalf("write default image: %v", err)
	}

	catalogSvc := service.NewCatalogService(repository.NewProductRepository(db), store)
	authSvc := service.NewAuthService(repository.NewUserRepository(db))

	h := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc),
		ProductHandler:   handler.NewProductHandler(catalogSvc),
		AssetHandler:     handler.NewAssetHandler(store),
		CORSOrigins:      []string{"http://localhost:3000"},
		AuthRateLimitRPM: 1000,
		APIRateLimitRPM:  1000,
		StaticImageDir:   staticDir,
	})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return &catalogTestEnv{baseURL: server.URL, uploadDir: uploadDir}
}

func pngFixtureBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp, decodeObject(t, resp)
}

func decodeObject(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return out
}

func sendProductForm(t *testing.T, method, url string, fields map[string]string, imageName string, imageBytes []byte) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if imageName != "" {
		// Browsers declare the part's content type from the file; multipart's
		// CreateFormFile would pin it to application/octet-stream.
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, imageName))
		header.Set("Content-Type", mime.TypeByExtension(filepath.Ext(imageName)))
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(imageBytes); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp, decodeObject(t, resp)
}

func (e *catalogTestEnv) assetFileExists(imagePath string) bool {
	key := strings.TrimPrefix(imagePath, domain.UploadPathPrefix)
	if key == imagePath {
		return false
	}
	_, err := os.Stat(filepath.Join(e.uploadDir, key))
	return err == nil
}

func TestCatalogProductLifecycle(t *testing.T) {
	env := newCatalogTestServer(t)

	// Create without an image: the record carries the default sentinel.
	resp, created := sendProductForm(t, http.MethodPost, env.baseURL+"/api/products", map[string]string{
		"name": "Pen", "price": "1.5", "quantity": "100", "category": "Stationery",
	}, "", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%v", resp.StatusCode, created)
	}
	if created["image"] != domain.DefaultImagePath {
		t.Fatalf("expected default image, got %v", created["image"])
	}
	productID := int(created["id"].(float64))

	// Update with a fresh image file: the record now points at a stored asset.
	resp, updated := sendProductForm(t, http.MethodPut, fmt.Sprintf("%s/api/products/%d", env.baseURL, productID), map[string]string{
		"name": "Pen", "price": "1.75", "quantity": "90", "category": "Stationery",
	}, "pen.png", pngFixtureBytes())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d body=%v", resp.StatusCode, updated)
	}
	firstImage, _ := updated["image"].(string)
	if !strings.HasPrefix(firstImage, domain.UploadPathPrefix) {
		t.Fatalf("expected uploaded image path, got %q", firstImage)
	}
	if !env.assetFileExists(firstImage) {
		t.Fatalf("expected asset on disk for %q", firstImage)
	}

	// The uploaded image is served back over HTTP.
	imgResp, err := http.Get(env.baseURL + firstImage)
	if err != nil {
		t.Fatalf("GET %s: %v", firstImage, err)
	}
	imgBody, _ := io.ReadAll(imgResp.Body)
	imgResp.Body.Close()
	if imgResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 serving upload, got %d", imgResp.StatusCode)
	}
	if !bytes.Equal(imgBody, pngFixtureBytes()) {
		t.Fatalf("served image does not match upload")
	}

	// Replacing the image removes the previous asset and keeps the new one.
	resp, replaced := sendProductForm(t, http.MethodPut, fmt.Sprintf("%s/api/products/%d", env.baseURL, productID), map[string]string{
		"name": "Pen", "price": "1.75", "quantity": "90", "category": "Stationery",
	}, "pen-v2.png", pngFixtureBytes())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second update: expected 200, got %d body=%v", resp.StatusCode, replaced)
	}
	secondImage, _ := replaced["image"].(string)
	if secondImage == firstImage {
		t.Fatalf("expected a new asset key on replacement")
	}
	if env.assetFileExists(firstImage) {
		t.Fatalf("expected previous asset %q to be deleted", firstImage)
	}
	if !env.assetFileExists(secondImage) {
		t.Fatalf("expected replacement asset %q to exist", secondImage)
	}

	// Listing returns a raw array, newest first.
	listResp, err := http.Get(env.baseURL + "/api/products")
	if err != nil {
		t.Fatalf("GET products: %v", err)
	}
	rawList, _ := io.ReadAll(listResp.Body)
	listResp.Body.Close()
	var listed []map[string]any
	if err := json.Unmarshal(rawList, &listed); err != nil {
		t.Fatalf("expected raw array response, got %q: %v", rawList, err)
	}
	if len(listed) != 1 || listed[0]["name"] != "Pen" {
		t.Fatalf("unexpected listing: %v", listed)
	}

	// Deleting removes the record and its asset.
	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/products/%d", env.baseURL, productID), nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", delResp.StatusCode)
	}
	if env.assetFileExists(secondImage) {
		t.Fatalf("expected asset %q gone after delete", secondImage)
	}

	req, _ = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/products/%d", env.baseURL, productID), nil)
	delResp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("second DELETE: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", delResp.StatusCode)
	}
}

func TestCatalogRejectsInvalidUploads(t *testing.T) {
	env := newCatalogTestServer(t)

	// Disallowed file type: nothing is persisted at all.
	resp, body := sendProductForm(t, http.MethodPost, env.baseURL+"/api/products", map[string]string{
		"name": "Pen", "price": "1.5", "quantity": "100", "category": "Stationery",
	}, "notes.txt", []byte("not an image"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for txt upload, got %d body=%v", resp.StatusCode, body)
	}

	// Missing fields fail validation before any storage happens.
	resp, body = sendProductForm(t, http.MethodPost, env.baseURL+"/api/products", map[string]string{
		"name": "Pen",
	}, "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d body=%v", resp.StatusCode, body)
	}

	listResp, err := http.Get(env.baseURL + "/api/products")
	if err != nil {
		t.Fatalf("GET products: %v", err)
	}
	rawList, _ := io.ReadAll(listResp.Body)
	listResp.Body.Close()
	var listed []map[string]any
	if err := json.Unmarshal(rawList, &listed); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty catalog after rejected creates, got %v", listed)
	}

	entries, err := os.ReadDir(env.uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no stored assets after rejected creates, got %d", len(entries))
	}
}

func TestAuthRegistrationAndLoginFlow(t *testing.T) {
	env := newCatalogTestServer(t)

	resp, registered := postJSON(t, env.baseURL+"/api/register", `{"username":"alice","email":"alice@example.com","password":"s3cret"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%v", resp.StatusCode, registered)
	}
	if _, leaked := registered["password"]; leaked {
		t.Fatalf("password leaked in register response: %v", registered)
	}

	resp, dup := postJSON(t, env.baseURL+"/api/register", `{"username":"other","email":"alice@example.com","password":"different"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d body=%v", resp.StatusCode, dup)
	}

	resp, logged := postJSON(t, env.baseURL+"/api/login", `{"email":"alice@example.com","password":"s3cret"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%v", resp.StatusCode, logged)
	}
	loggedUser, ok := logged["user"].(map[string]any)
	if !ok || loggedUser["username"] != "alice" {
		t.Fatalf("unexpected login payload: %v", logged)
	}

	resp, denied := postJSON(t, env.baseURL+"/api/login", `{"email":"alice@example.com","password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d body=%v", resp.StatusCode, denied)
	}
}

func TestDefaultImageServedFromStaticDir(t *testing.T) {
	env := newCatalogTestServer(t)

	resp, err := http.Get(env.baseURL + domain.DefaultImagePath)
	if err != nil {
		t.Fatalf("GET default image: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for default image, got %d", resp.StatusCode)
	}
}
