package erp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andresuchdata/erpsync/internal/config"
)

type fakeERP struct {
	logins   int32
	executes int32
	lastBody map[string]any
	respond  func(w http.ResponseWriter, body map[string]any)
}

func (f *fakeERP) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.logins, 1)
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode login: %v", err)
		}
		if creds["username"] != "bi" || creds["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("Token tok-123"))
	})
	mux.HandleFunc("/execute", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.executes, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode execute: %v", err)
		}
		f.lastBody = body
		f.respond(w, body)
	})
	return mux
}

func newTestClient(url string) *Client {
	return NewClient(config.ERPConfig{
		LoginURL:    url + "/login",
		ExecuteURL:  url + "/execute",
		Username:    "bi",
		Password:    "secret",
		AppUser:     "app",
		AppPassword: "pwd",
		Company:     "acme",
		Entity:      "ENT",
		Employer:    "101",
		ManagerUser: "MNGBI",
		RequestID:   6254,
		Timeout:     5 * time.Second,
		RetryMax:    1,
		Services: config.ERPServices{
			Inventory:    "INV",
			Sales:        "SALES",
			Clients:      "CLI",
			InvoiceLines: "FAC",
		},
	})
}

func TestInventory_SendsServiceAndDecodesLenientRows(t *testing.T) {
	fake := &fakeERP{respond: func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(`{"data":[{"sku":"A1","bod":"01P","nombre":" Acetaminofen ","stock":"12.5"},{"sku":1002,"bod":"01P","stock":null}]}`))
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	rows, err := newTestClient(srv.URL).Inventory(context.Background(), "01P")
	if err != nil {
		t.Fatalf("Inventory error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Stock.Float() != 12.5 || rows[0].Name != "Acetaminofen" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].SKU != "1002" || rows[1].Stock != 0 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}

	if fake.lastBody["service"] != "INV" || fake.lastBody["appuser"] != "app" || fake.lastBody["id_solicitud"] != float64(6254) {
		t.Fatalf("unexpected request body %+v", fake.lastBody)
	}
	data, _ := fake.lastBody["data"].(map[string]any)
	if data["bod"] != "01P" || data["usmng"] != "MNGBI" || data["sku"] != "*" {
		t.Fatalf("unexpected request data %+v", data)
	}
}

func TestExecute_ReusesToken(t *testing.T) {
	fake := &fakeERP{respond: func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(`[]`))
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := c.Sales(context.Background(), DateRange{From: "20240101", To: "20240130"}); err != nil {
			t.Fatalf("Sales error: %v", err)
		}
	}
	logins, executes := atomic.LoadInt32(&fake.logins), atomic.LoadInt32(&fake.executes)
	if logins != 1 || executes != 3 {
		t.Fatalf("expected 1 login and 3 executes, got %d and %d", logins, executes)
	}
}

func TestExecute_NoDataIsEmpty(t *testing.T) {
	fake := &fakeERP{respond: func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(`{"error":0,"msg":"NoData"}`))
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	rows, err := newTestClient(srv.URL).Clients(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Clients error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	data, _ := fake.lastBody["data"].(map[string]any)
	if _, ok := data["usrmng"]; !ok {
		t.Fatalf("clients request must send usrmng, got %+v", data)
	}
}

func TestExecute_UnexpectedPayload(t *testing.T) {
	fake := &fakeERP{respond: func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(`{"error":3,"msg":"bad entity"}`))
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Inventory(context.Background(), "01P")
	if !errors.Is(err, ErrUnexpectedPayload) {
		t.Fatalf("expected ErrUnexpectedPayload, got %v", err)
	}
}

func TestInvoiceLines_UsesOwnRequestID(t *testing.T) {
	fake := &fakeERP{respond: func(w http.ResponseWriter, _ map[string]any) {
		_, _ = w.Write([]byte(`{"data":[{"documento":"FV","numero":"10","cant1":"2"}]}`))
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	rows, err := newTestClient(srv.URL).InvoiceLines(context.Background(), day)
	if err != nil {
		t.Fatalf("InvoiceLines error: %v", err)
	}
	if len(rows) != 1 || rows[0].Quantity != "2" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if fake.lastBody["id_solicitud"] != float64(invoiceRequestID) {
		t.Fatalf("unexpected request id %v", fake.lastBody["id_solicitud"])
	}
	data, _ := fake.lastBody["data"].(map[string]any)
	if data["fecha_inicial"] != "20240309" || data["fecha_final"] != "20240309" {
		t.Fatalf("unexpected dates %+v", data)
	}
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Products(context.Background()); err == nil {
		t.Fatal("expected error when login is rejected")
	}
}

func TestParseToken(t *testing.T) {
	cases := map[string]string{
		"Token abc":   "abc",
		"abc":         "abc",
		`"Token xyz"`: "xyz",
		"  plain  \n": "plain",
		"Token":       "",
	}
	for in, want := range cases {
		if got := parseToken([]byte(in)); got != want {
			t.Fatalf("parseToken(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestSalesWindows(t *testing.T) {
	ref := time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC)
	got := SalesWindows(ref)
	want := []DateRange{
		{From: "20240402", To: "20240501"},
		{From: "20240502", To: "20240531"},
		{From: "20240601", To: "20240630"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window %d: got %+v, expected %+v", i, got[i], want[i])
		}
	}
	if r := LastDays(ref, 30); r != want[2] {
		t.Fatalf("LastDays(30) = %+v", r)
	}
}

func TestNumber(t *testing.T) {
	cases := map[string]float64{
		`12`:     12,
		`"7.25"`: 7.25,
		`" 3 "`:  3,
		`"abc"`:  0,
		`null`:   0,
		`-4`:     -4,
	}
	for in, want := range cases {
		var n Number
		if err := json.Unmarshal([]byte(in), &n); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", in, err)
		}
		if n.Float() != want {
			t.Fatalf("Number(%s) = %v, expected %v", in, n, want)
		}
	}
}
