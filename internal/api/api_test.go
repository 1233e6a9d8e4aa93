package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andresuchdata/erpsync/internal/auth"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/export"
	"github.com/andresuchdata/erpsync/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryUsers struct {
	users []*domain.User
}

func (m *memoryUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	u.ID = int64(len(m.users) + 1)
	copied := *u
	m.users = append(m.users, &copied)
	return nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubDashboard struct {
	lastFilter domain.DashboardFilter
}

func (s *stubDashboard) Inventory(_ context.Context, f domain.DashboardFilter) ([]domain.InventoryRow, error) {
	s.lastFilter = f
	return []domain.InventoryRow{{SKU: "X1", Warehouse: "01P", Stock: 4}}, nil
}

func (s *stubDashboard) InventoryDays(context.Context, domain.DashboardFilter) ([]domain.InventoryDays, error) {
	return []domain.InventoryDays{}, nil
}

func (s *stubDashboard) Classification(context.Context, domain.DashboardFilter) ([]domain.ClassificationView, error) {
	return []domain.ClassificationView{}, nil
}

func (s *stubDashboard) StockAlerts(context.Context, domain.DashboardFilter) ([]domain.StockAlert, error) {
	return []domain.StockAlert{}, nil
}

func (s *stubDashboard) Suggestions(context.Context, domain.DashboardFilter) ([]domain.SuggestionRecord, error) {
	return []domain.SuggestionRecord{}, nil
}

func (s *stubDashboard) SupplierCatalog(context.Context, domain.DashboardFilter) ([]domain.SupplierProduct, error) {
	return []domain.SupplierProduct{}, nil
}

func (s *stubDashboard) SupplierAlerts(context.Context, domain.DashboardFilter) ([]domain.SupplierAlert, error) {
	return []domain.SupplierAlert{}, nil
}

func (s *stubDashboard) JobRuns(context.Context, string, int) ([]domain.JobRun, error) {
	return []domain.JobRun{}, nil
}

func (s *stubDashboard) LookupClient(_ context.Context, taxID string) (*domain.Client, error) {
	if taxID == "900" {
		return &domain.Client{TaxID: "900", Name: "ACME"}, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubDashboard) ExportWorkbook(context.Context, domain.DashboardFilter) ([]byte, error) {
	return []byte("xlsx"), nil
}

type testServer struct {
	router    *gin.Engine
	dashboard *stubDashboard
}

func newTestServer() *testServer {
	authSvc := service.NewAuthService(&memoryUsers{}, auth.NewTokenManager("test-secret", time.Hour), 4)
	dash := &stubDashboard{}
	router := NewRouter(&Services{Auth: authSvc, Dashboard: dash}, Options{Registry: prometheus.NewRegistry()})
	return &testServer{router: router, dashboard: dash}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func (s *testServer) register(t *testing.T) string {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/register", `{"name":"Ana","email":"ana@example.com","password":"s3cret!"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)["token"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || decodeBody(t, rec)["ok"] != true {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer()
	s.register(t)

	rec := s.do(http.MethodPost, "/api/v1/auth/register", `{"name":"Ana","email":"ana@example.com","password":"s3cret!"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized || decodeBody(t, rec)["ok"] != false {
		t.Fatalf("bad login status %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"s3cret!"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	token := decodeBody(t, rec)["token"].(string)

	rec = s.do(http.MethodGet, "/api/v1/auth/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status %d", rec.Code)
	}
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["email"] != "ana@example.com" {
		t.Fatalf("unexpected user %v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatal("password hash must not be serialized")
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer()
	cases := []string{
		`{"email":"ana@example.com","password":"s3cret!"}`,
		`{"name":"Ana","email":"not-an-email","password":"s3cret!"}`,
		`{"name":"Ana","email":"ana@example.com","password":"123"}`,
		`not json`,
	}
	for _, body := range cases {
		if rec := s.do(http.MethodPost, "/api/v1/auth/register", body, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status %d", body, rec.Code)
		}
	}
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer()

	if rec := s.do(http.MethodGet, "/api/v1/inventory", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/v1/inventory", "", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	token := s.register(t)
	rec := s.do(http.MethodGet, "/api/v1/inventory?warehouse=%2001P%20&q=acet&page_size=10", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("inventory status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["ok"] != true || len(body["rows"].([]any)) != 1 {
		t.Fatalf("unexpected body %v", body)
	}
	if f := s.dashboard.lastFilter; f.Warehouse != "01P" || f.Search != "acet" || f.PageSize != 10 || f.Page != 1 {
		t.Fatalf("unexpected filter %+v", f)
	}

	for _, path := range []string{
		"/api/v1/inventory/days", "/api/v1/classification", "/api/v1/alerts/stock",
		"/api/v1/suggestions", "/api/v1/supplier/catalog", "/api/v1/supplier/alerts", "/api/v1/jobs/runs",
	} {
		if rec := s.do(http.MethodGet, path, "", token); rec.Code != http.StatusOK {
			t.Fatalf("%s status %d", path, rec.Code)
		}
	}

	if rec := s.do(http.MethodGet, "/api/v1/classification?class=Z", "", token); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown class, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/v1/suggestions?page_size=999999", "", token); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized page, got %d", rec.Code)
	}
}

func TestExportSuggestions(t *testing.T) {
	s := newTestServer()
	token := s.register(t)

	rec := s.do(http.MethodGet, "/api/v1/suggestions/export", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestClientLookup(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/v1/clients/lookup", `{"cedula":"900"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup status %d: %s", rec.Code, rec.Body.String())
	}
	if client := decodeBody(t, rec)["client"].(map[string]any); client["name"] != "ACME" {
		t.Fatalf("unexpected client %v", client)
	}

	if rec := s.do(http.MethodPost, "/api/v1/clients/lookup", `{"tax_id":"1"}`, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/v1/clients/lookup", `{}`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()
	s.do(http.MethodGet, "/health", "", "")

	rec := s.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `erpsync_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Fatalf("request counter missing:\n%s", rec.Body.String())
	}
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"https://a.example, https://b.example", " "})
	if all || len(origins) != 2 || origins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v %v", origins, all)
	}
	if _, all := normalizeAllowedOrigins([]string{"*"}); !all {
		t.Fatal("expected allow all")
	}
}
