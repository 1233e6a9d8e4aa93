// Package supplier scrapes the product catalog of the supplier portal.
package supplier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/httpclient"
)

var ErrLoginRejected = errors.New("supplier: login rejected")

// maxPages stops a runaway pagination when the portal never reports a total.
const maxPages = 500

type Client struct {
	cfg     config.SupplierConfig
	http    *retryablehttp.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient builds a session-bound client. Redirects are not followed: the
// login answers 302 on success.
func NewClient(cfg config.SupplierConfig) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	rc := httpclient.New("supplier", cfg.RetryMax, cfg.Timeout)
	rc.HTTPClient.Jar = jar
	rc.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	rows := cfg.RowsPerPage
	if rows <= 0 {
		rows = 15000
	}
	cfg.RowsPerPage = rows
	if cfg.CatalogID == "" {
		cfg.CatalogID = "1"
	}

	limit := rate.Inf
	if cfg.PageDelay > 0 {
		limit = rate.Every(cfg.PageDelay)
	}

	return &Client{
		cfg:     cfg,
		http:    rc,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

// Login opens a portal session.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"_username": {c.cfg.Username},
		"_password": {c.cfg.Password},
		"seccion":   {""},
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/drogueria/login_check"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supplier login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("%w: status %d", ErrLoginRejected, resp.StatusCode)
	}
	return nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, err
	}

	q := url.Values{}
	q.Set("sord[]", "ASC")
	q.Set("sidx[]", "producto")
	q.Set("rows", fmt.Sprint(c.cfg.RowsPerPage))
	q.Set("page", fmt.Sprint(page))
	u := c.endpoint("/drogueria/productosJson/"+c.cfg.CatalogID) + "?" + q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.endpoint("/drogueria/catalogo/"+c.cfg.CatalogID))
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("catalog page %d: %w", page, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("read catalog page %d: %w", page, err)
	}
	if resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("catalog page %d: status %d", page, resp.StatusCode)
	}

	return DecodePage(raw)
}

// Catalog logs in and walks every catalog page. It stops at the reported
// page total or at the first empty page.
func (c *Client) Catalog(ctx context.Context) ([]domain.SupplierProduct, error) {
	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	now := c.now()
	var (
		out     []domain.SupplierProduct
		skipped int
	)
	for page := 1; page <= maxPages; page++ {
		p, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(p.Items) == 0 {
			break
		}

		for _, item := range p.Items {
			product, ok := Normalize(item, now)
			if !ok {
				skipped++
				continue
			}
			out = append(out, product)
		}

		log.Debug().Int("page", page).Int("total_pages", p.TotalPages).Int("items", len(p.Items)).Msg("supplier catalog page")

		if p.TotalPages > 0 && page >= p.TotalPages {
			break
		}
	}

	log.Info().Int("products", len(out)).Int("skipped", skipped).Msg("supplier catalog fetched")
	return out, nil
}
