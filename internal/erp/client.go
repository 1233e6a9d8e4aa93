// Package erp talks to the ERP "execute" API. Every query is a POST carrying
// a service code and a data object, authenticated with a bearer token from
// the login endpoint.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/httpclient"
)

const (
	cutoffLayout = "20060102 15:04:05"
	dayLayout    = "20060102"

	// fixed cut-off dates the ERP expects for "everything"
	inventoryCutoff = "20100101 16:40:00"
	catalogCutoff   = "19000101 11:10:30"

	// invoice lines use their own request id
	invoiceRequestID = 6255
)

// ErrUnexpectedPayload is returned when the execute response is neither a
// data envelope, a NoData marker nor a bare array.
var ErrUnexpectedPayload = errors.New("erp: unexpected response payload")

type Client struct {
	cfg  config.ERPConfig
	http *http.Client
}

// NewClient builds a client with token reuse and bounded retries.
func NewClient(cfg config.ERPConfig) *Client {
	retry := httpclient.New("erp", cfg.RetryMax, cfg.Timeout)

	src := &loginSource{
		url:      cfg.LoginURL,
		username: cfg.Username,
		password: cfg.Password,
		http:     retry,
		timeout:  cfg.Timeout,
		now:      time.Now,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, retry.StandardClient())
	return &Client{
		cfg:  cfg,
		http: oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, src)),
	}
}

type executeRequest struct {
	RequestID int            `json:"id_solicitud"`
	Service   string         `json:"service"`
	AppUser   string         `json:"appuser"`
	Password  string         `json:"pwd"`
	Company   string         `json:"company"`
	Entity    string         `json:"entity"`
	Data      map[string]any `json:"data"`
}

type executeEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *int            `json:"error"`
	Msg   string          `json:"msg"`
}

// Execute runs a service and decodes its rows into out, which must be a
// pointer to a slice.
func (c *Client) Execute(ctx context.Context, requestID int, service string, data map[string]any, out any) error {
	body, err := json.Marshal(executeRequest{
		RequestID: requestID,
		Service:   service,
		AppUser:   c.cfg.AppUser,
		Password:  c.cfg.AppPassword,
		Company:   c.cfg.Company,
		Entity:    c.cfg.Entity,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ExecuteURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s: %w", service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", service, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("execute %s: status %d: %s", service, resp.StatusCode, truncate(raw, 400))
	}

	rows, err := extractRows(raw)
	if err != nil {
		return fmt.Errorf("execute %s: %w", service, err)
	}
	if err := json.Unmarshal(rows, out); err != nil {
		return fmt.Errorf("decode %s rows: %w", service, err)
	}

	log.Debug().
		Str("service", service).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(raw)).
		Msg("erp execute")

	return nil
}

// extractRows returns the JSON array of rows carried by an execute response.
func extractRows(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrUnexpectedPayload
	}
	if trimmed[0] == '[' {
		return trimmed, nil
	}

	var env executeEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedPayload, truncate(trimmed, 400))
	}
	if env.Error != nil && *env.Error == 0 && env.Msg == "NoData" {
		return json.RawMessage("[]"), nil
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) > 0 && data[0] == '[' {
		return data, nil
	}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		if env.Error == nil {
			return json.RawMessage("[]"), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnexpectedPayload, truncate(trimmed, 400))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}

func (c *Client) baseData() map[string]any {
	return map[string]any{
		"usmng": c.cfg.ManagerUser,
		"emp":   c.cfg.Employer,
	}
}

// Inventory returns the stock of every SKU in a warehouse.
func (c *Client) Inventory(ctx context.Context, warehouse string) ([]InventoryItem, error) {
	data := c.baseData()
	data["sku"] = "*"
	data["bod"] = warehouse
	data["tpumd"] = "1"
	data["existencia"] = "e"
	data["igual"] = "1"
	data["fecha_corte"] = inventoryCutoff

	var rows []InventoryItem
	if err := c.Execute(ctx, c.cfg.RequestID, c.cfg.Services.Inventory, data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Sales returns the sale lines between two YYYYMMDD dates, both inclusive.
func (c *Client) Sales(ctx context.Context, r DateRange) ([]SaleItem, error) {
	data := c.baseData()
	data["tpumd"] = 1
	data["fecha_inicial"] = r.From
	data["fecha_final"] = r.To

	var rows []SaleItem
	if err := c.Execute(ctx, c.cfg.RequestID, c.cfg.Services.Sales, data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Products returns the full product master.
func (c *Client) Products(ctx context.Context) ([]ProductItem, error) {
	data := map[string]any{
		"usmng":       c.cfg.ManagerUser,
		"fecha_corte": catalogCutoff,
	}

	var rows []ProductItem
	if err := c.Execute(ctx, c.cfg.RequestID, c.cfg.Services.Products, data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Prices returns a price list.
func (c *Client) Prices(ctx context.Context, list string) ([]PriceItem, error) {
	data := map[string]any{
		"usmng":       c.cfg.ManagerUser,
		"lista":       list,
		"fecha_corte": catalogCutoff,
	}

	var rows []PriceItem
	if err := c.Execute(ctx, c.cfg.RequestID, c.cfg.Services.Prices, data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Clients returns the clients changed since the cut-off.
func (c *Client) Clients(ctx context.Context, cutoff time.Time) ([]ClientItem, error) {
	data := map[string]any{
		"usrmng":      c.cfg.ManagerUser,
		"fecha_corte": cutoff.Format(cutoffLayout),
	}

	var rows []ClientItem
	if err := c.Execute(ctx, c.cfg.RequestID, c.cfg.Services.Clients, data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// InvoiceLines returns the point of sale invoice lines of one day.
func (c *Client) InvoiceLines(ctx context.Context, day time.Time) ([]InvoiceLineItem, error) {
	d := day.Format(dayLayout)
	data := c.baseData()
	data["sku"] = "*"
	data["dtbod"] = "1"
	data["bod"] = "*"
	data["suc"] = "*"
	data["cco"] = "*"
	data["tpumd"] = "1"
	data["fecha_inicial"] = d
	data["fecha_final"] = d

	var rows []InvoiceLineItem
	if err := c.Execute(ctx, invoiceRequestID, c.cfg.Services.InvoiceLines, data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
