package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/service"
	"pdvcaixa/internal/store/memory"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	svc     *service.Service
}

// newTestServer wires the real service over an in-memory snapshot so each
// request runs the complete path.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc, err := service.New(context.Background(), memory.New(), nil, service.Options{})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	auth := NewAuthManager("test-secret-key-test-secret-key!", time.Hour)
	api := New(svc, auth, Options{AllowedOrigin: "*"})
	return &testServer{t: t, handler: api.Handler(), svc: svc}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:5000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(cod, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"cod": cod, "password": password})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: expected 200, got %d (%s)", cod, rec.Code, rec.Body.String())
	}
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	decode(s.t, rec, &body)
	if body.AccessToken == "" {
		s.t.Fatalf("login %s: empty token", cod)
	}
	return body.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d (body: %s)", want, rec.Code, rec.Body.String())
	}
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)

	var body map[string]any
	decode(t, rec, &body)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected DENY, got %q", got)
	}
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)
	token := s.login("adm-001", "2026")

	rec := s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	expectStatus(t, rec, http.StatusOK)

	var body struct {
		User struct {
			Cod      string `json:"cod"`
			RoleName string `json:"roleName"`
		} `json:"user"`
		Areas []string `json:"areas"`
	}
	decode(t, rec, &body)
	if body.User.Cod != "ADM-001" || body.User.RoleName != "Administrador" {
		t.Fatalf("unexpected user %+v", body.User)
	}
	if len(body.Areas) != 6 {
		t.Fatalf("expected admin to reach every area, got %v", body.Areas)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"cod": "ADM-001", "password": "nope"})
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestLoginRateLimitReturns429(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 6; i++ {
		rec := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"cod": "ADM-001", "password": "wrong"})
		if i < 5 && rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, rec.Code)
		}
		if i == 5 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", rec.Code)
		}
	}
}

func TestRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(http.MethodGet, "/api/v1/cart", "", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodGet, "/api/v1/cart", "not-a-jwt", nil), http.StatusUnauthorized)
}

func TestTokenEndsWithSession(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("ADM-001", "2026")
	expectStatus(t, s.do(http.MethodPost, "/api/v1/auth/logout", admin, nil), http.StatusNoContent)
	expectStatus(t, s.do(http.MethodGet, "/api/v1/auth/me", admin, nil), http.StatusUnauthorized)

	admin = s.login("ADM-001", "2026")
	s.login("G-001", "")
	expectStatus(t, s.do(http.MethodGet, "/api/v1/auth/me", admin, nil), http.StatusUnauthorized)
}

func TestTokenDoesNotSurviveRelogin(t *testing.T) {
	s := newTestServer(t)
	first := s.login("ADM-001", "2026")
	expectStatus(t, s.do(http.MethodPost, "/api/v1/auth/logout", first, nil), http.StatusNoContent)

	second := s.login("ADM-001", "2026")
	expectStatus(t, s.do(http.MethodGet, "/api/v1/auth/me", first, nil), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodGet, "/api/v1/auth/me", second, nil), http.StatusOK)

	third := s.login("ADM-001", "2026")
	expectStatus(t, s.do(http.MethodGet, "/api/v1/auth/me", second, nil), http.StatusUnauthorized)
	expectStatus(t, s.do(http.MethodGet, "/api/v1/auth/me", third, nil), http.StatusOK)
}

func TestRoleAreasAreEnforced(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("ADM-001", "2026")

	var vendedorID string
	for _, r := range s.svc.Roles() {
		if r.Name == "Vendedor" {
			vendedorID = r.ID
		}
	}
	rec := s.do(http.MethodPost, "/api/v1/employees", admin, map[string]any{"name": "Joana", "roleId": vendedorID, "password": ""})
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		Employee struct {
			Cod         string `json:"cod"`
			HasPassword bool   `json:"hasPassword"`
		} `json:"employee"`
	}
	decode(t, rec, &created)
	if created.Employee.Cod != "V-001" || created.Employee.HasPassword {
		t.Fatalf("unexpected employee %+v", created.Employee)
	}

	seller := s.login("V-001", "anything")
	expectStatus(t, s.do(http.MethodGet, "/api/v1/cart", seller, nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodPost, "/api/v1/products", seller, map[string]any{"name": "X", "price": "1"}), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodGet, "/api/v1/employees", seller, nil), http.StatusForbidden)
	expectStatus(t, s.do(http.MethodPut, "/api/v1/settings/theme", seller, map[string]any{}), http.StatusForbidden)
}

func TestEmployeeListHidesPasswords(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("ADM-001", "2026")

	rec := s.do(http.MethodGet, "/api/v1/employees", admin, nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "$2a$") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password material leaked: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"hasPassword":true`) {
		t.Fatalf("expected admin to report a password: %s", rec.Body.String())
	}
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login("ADM-001", "2026")

	expectStatus(t, s.do(http.MethodPost, "/api/v1/sales", token, map[string]any{"paymentMethod": "Dinheiro"}), http.StatusConflict)
	expectStatus(t, s.do(http.MethodPost, "/api/v1/register/open", token, map[string]any{"openingBalance": "300.00"}), http.StatusCreated)
	expectStatus(t, s.do(http.MethodPost, "/api/v1/cart/items", token, map[string]any{"cod": "7891000315507", "quantity": 3}), http.StatusOK)
	expectStatus(t, s.do(http.MethodPost, "/api/v1/cart/items", token, map[string]any{"cod": "PROD-0002", "quantity": 31}), http.StatusUnprocessableEntity)

	rec := s.do(http.MethodPost, "/api/v1/sales", token, map[string]any{"paymentMethod": "Dinheiro", "amountReceived": "20.00"})
	expectStatus(t, rec, http.StatusCreated)
	var sale struct {
		Transaction struct {
			ID     string          `json:"id"`
			Total  decimal.Decimal `json:"total"`
			Change decimal.Decimal `json:"change"`
		} `json:"transaction"`
	}
	decode(t, rec, &sale)
	if !sale.Transaction.Total.Equal(decimal.NewFromInt(15)) || !sale.Transaction.Change.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected totals %+v", sale.Transaction)
	}

	rec = s.do(http.MethodGet, "/api/v1/products/by-cod/7891000315507", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var lookup struct {
		Product struct {
			Stock decimal.Decimal `json:"stock"`
		} `json:"product"`
	}
	decode(t, rec, &lookup)
	if !lookup.Product.Stock.Equal(decimal.NewFromInt(97)) {
		t.Fatalf("expected stock 97, got %s", lookup.Product.Stock)
	}

	rec = s.do(http.MethodGet, "/api/v1/sales/"+sale.Transaction.ID+"/receipt", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var printed struct {
		PreviewText  string `json:"previewText"`
		EscposBase64 string `json:"escposBase64"`
	}
	decode(t, rec, &printed)
	if !strings.Contains(printed.PreviewText, "CUPOM FISCAL") || printed.EscposBase64 == "" {
		t.Fatalf("unexpected receipt %+v", printed)
	}

	expectStatus(t, s.do(http.MethodGet, "/api/v1/sales/last", token, nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/v1/sales?method=PIX", token, nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/v1/sales?from=ontem", token, nil), http.StatusBadRequest)

	rec = s.do(http.MethodPost, "/api/v1/register/close", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var closed struct {
		Report struct {
			ExpectedCash decimal.Decimal `json:"expectedCash"`
		} `json:"report"`
	}
	decode(t, rec, &closed)
	if !closed.Report.ExpectedCash.Equal(decimal.NewFromInt(315)) {
		t.Fatalf("expected 315 in drawer, got %s", closed.Report.ExpectedCash)
	}
}

func TestSuggestionsWithoutEngine(t *testing.T) {
	s := newTestServer(t)
	token := s.login("ADM-001", "2026")

	rec := s.do(http.MethodGet, "/api/v1/suggestions", token, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"suggestions":[]`) {
		t.Fatalf("expected empty suggestions, got %s", rec.Body.String())
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	s := newTestServer(t)
	body := `{"cod":"` + strings.Repeat("a", maxBodyBytes+1024) + `","password":"x"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestAuthManagerRejectsExpiredAndForeignTokens(t *testing.T) {
	auth := NewAuthManager("secret-one-secret-one-secret-one", time.Minute)
	issued := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issued }

	token, _, err := auth.Issue(domain.CurrentUser{Cod: "ADM-001", RoleName: "Administrador", SessionID: "login-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if actor, err := auth.ParseToken(token); err != nil || actor.Cod != "ADM-001" || actor.SessionID != "login-1" {
		t.Fatalf("expected valid token, got %+v %v", actor, err)
	}

	auth.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other := NewAuthManager("secret-two-secret-two-secret-two", time.Minute)
	other.now = func() time.Time { return issued }
	if _, err := other.ParseToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}
