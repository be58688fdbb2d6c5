package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abfoods/orderdesk/internal/config"
	"github.com/abfoods/orderdesk/internal/session"
)

const testCSV = "ITEM DESCRIPTION,ITEM DESCRIPTION 2,VENDOR,OH QTY,TIER QTY,PALLET_UNITS,CATEGORY,ITEM NUMBER\n" +
	"Frozen Widget,Case of 12,Acme,100,12,48,Frozen,10023\n" +
	"Dry Gadget,,Bolt Co,55,6,24,Dry,10024\n"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 60 * time.Second
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Upload.MaxConcurrent = 2
	cfg.Upload.MaxWaitTime = time.Second
	cfg.Order.Recipient = "orders@example.com"
	cfg.Security.EnableCSP = true
	return cfg
}

// testClient drives the router while carrying the session cookie
// between requests, like a browser would.
type testClient struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	sessions := session.NewManager(time.Hour, time.Hour)
	t.Cleanup(sessions.Close)

	return &testClient{t: t, srv: NewServer(testConfig(), sessions)}
}

func (c *testClient) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *testClient) doJSON(method, path string, payload any) *httptest.ResponseRecorder {
	c.t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		c.t.Fatalf("marshal payload: %v", err)
	}
	return c.do(method, path, "application/json", bytes.NewReader(body))
}

func (c *testClient) upload(filename, content string) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		c.t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		c.t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	return c.do(http.MethodPost, "/api/inventory", mw.FormDataContentType(), &buf)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestOrderingFlow(t *testing.T) {
	c := newTestClient(t)

	// Upload inventory.
	rec := c.upload("export.csv", testCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["itemCount"].(float64); got != 2 {
		t.Fatalf("expected 2 items ingested, got %v", got)
	}

	// List and filter.
	rec = c.do(http.MethodGet, "/api/items?search=widget", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("items: expected 200, got %d", rec.Code)
	}
	if got := decode(t, rec)["count"].(float64); got != 1 {
		t.Fatalf("expected 1 filtered item, got %v", got)
	}

	// Categories come from the full inventory despite the filter.
	rec = c.do(http.MethodGet, "/api/categories", "", nil)
	cats := decode(t, rec)["categories"].([]any)
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %v", cats)
	}

	// Stage a quantity, add to cart.
	rec = c.doJSON(http.MethodPost, "/api/view", map[string]any{
		"qtyInput": map[string]string{"itemNumber": "10023", "text": "3"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("view: expected 200, got %d", rec.Code)
	}

	rec = c.doJSON(http.MethodPost, "/api/cart", map[string]string{"itemNumber": "10023"})
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	line := decode(t, rec)["line"].(map[string]any)
	if line["orderQty"].(float64) != 3 {
		t.Errorf("expected order qty 3, got %v", line["orderQty"])
	}

	// Order info and email.
	rec = c.doJSON(http.MethodPost, "/api/order", map[string]string{
		"customerName": "Acme Foods",
		"poNumber":     "1001",
		"shipTo":       "123 Main St",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("order info: expected 200, got %d", rec.Code)
	}

	rec = c.do(http.MethodGet, "/api/order/email", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("email: expected 200, got %d", rec.Code)
	}
	email := decode(t, rec)
	if email["subject"] != "Purchase Order 1001" {
		t.Errorf("subject = %v", email["subject"])
	}
	body := email["body"].(string)
	if !strings.Contains(body, "Frozen Widget Case of 12 (Acme) - Order Qty: 3 pallets | Units OH: 100") {
		t.Errorf("body missing cart line: %q", body)
	}
	mailto := email["mailto"].(string)
	if !strings.HasPrefix(mailto, "mailto:orders@example.com?") {
		t.Errorf("mailto = %q", mailto)
	}
	if strings.Contains(mailto, "+") {
		t.Errorf("mailto must percent-encode spaces: %q", mailto)
	}

	// Remove the line; the cart empties.
	rec = c.do(http.MethodDelete, "/api/cart/0", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rec.Code)
	}
	if got := decode(t, rec)["count"].(float64); got != 0 {
		t.Errorf("expected empty cart, got %v lines", got)
	}
}

func TestSessionCookiePersists(t *testing.T) {
	c := newTestClient(t)

	c.upload("export.csv", testCSV)
	if c.cookie == nil {
		t.Fatal("expected a session cookie to be set")
	}
	first := c.cookie.Value

	// Later requests reuse the same session.
	rec := c.do(http.MethodGet, "/api/items", "", nil)
	if got := decode(t, rec)["total"].(float64); got != 2 {
		t.Errorf("expected inventory to persist across requests, total = %v", got)
	}
	if c.cookie.Value != first {
		t.Errorf("session cookie changed between requests")
	}
}

func TestUploadErrors(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		c := newTestClient(t)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("note", "missing the file part")
		mw.Close()

		rec := c.do(http.MethodPost, "/api/inventory", mw.FormDataContentType(), &buf)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if got := decode(t, rec)["code"]; got != "FILE004" {
			t.Errorf("expected code FILE004, got %v", got)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		c := newTestClient(t)

		rec := c.upload("export.csv", "")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if got := decode(t, rec)["code"]; got != "FILE005" {
			t.Errorf("expected code FILE005, got %v", got)
		}
	})

	t.Run("failed parse keeps previous inventory", func(t *testing.T) {
		c := newTestClient(t)

		c.upload("export.csv", testCSV)
		c.upload("export.xlsx", "not a workbook")

		rec := c.do(http.MethodGet, "/api/items", "", nil)
		if got := decode(t, rec)["total"].(float64); got != 2 {
			t.Errorf("previous inventory should survive a failed parse, total = %v", got)
		}
	})
}

func TestAddUnknownItem(t *testing.T) {
	c := newTestClient(t)
	c.upload("export.csv", testCSV)

	rec := c.doJSON(http.MethodPost, "/api/cart", map[string]string{"itemNumber": "99999"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := decode(t, rec)["code"]; got != "ITEM001" {
		t.Errorf("expected code ITEM001, got %v", got)
	}
}

func TestRemoveOutOfRangeIsNoOp(t *testing.T) {
	c := newTestClient(t)
	c.upload("export.csv", testCSV)
	c.doJSON(http.MethodPost, "/api/cart", map[string]string{"itemNumber": "10023"})

	rec := c.do(http.MethodDelete, "/api/cart/42", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for out-of-range remove, got %d", rec.Code)
	}
	if got := decode(t, rec)["count"].(float64); got != 1 {
		t.Errorf("cart should be unchanged, got %v lines", got)
	}

	rec = c.do(http.MethodDelete, "/api/cart/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric index should be 400, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/api/categories", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected a Content-Security-Policy header")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("4th request should be rejected")
	}

	// A different IP has its own budget.
	if !rl.allow("10.0.0.2") {
		t.Error("other IPs should not share the budget")
	}
}

func TestRateLimiter_CloseTwice(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	rl.Close()
	rl.Close()
}

func TestServer_ShutdownStopsRateLimiters(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 100
	cfg.Rate.UploadLimit = 10

	sessions := session.NewManager(time.Hour, time.Hour)
	t.Cleanup(sessions.Close)

	srv := NewServer(cfg, sessions)
	if len(srv.rateLimiters) != 2 {
		t.Fatalf("expected 2 rate limiters registered, got %d", len(srv.rateLimiters))
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	for i, rl := range srv.rateLimiters {
		select {
		case <-rl.done:
		default:
			t.Errorf("rate limiter %d cleanup goroutine not stopped", i)
		}
	}
}
