package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

// tokenTTL bounds how long a login token is reused before logging in again.
const tokenTTL = 30 * time.Minute

// loginSource logs in with username and password. The endpoint answers with
// the bare token, optionally prefixed with "Token ".
type loginSource struct {
	url      string
	username string
	password string
	http     *retryablehttp.Client
	timeout  time.Duration
	now      func() time.Time
}

func (s *loginSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"username": s.username,
		"password": s.password,
	})
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("erp login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erp login: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erp login read: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("erp login: status %d", resp.StatusCode)
	}

	token := parseToken(raw)
	if token == "" {
		return nil, fmt.Errorf("erp login: empty token")
	}

	return &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
		Expiry:      s.now().Add(tokenTTL),
	}, nil
}

// parseToken accepts "Token abc", "abc" or a JSON string of either.
func parseToken(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		text = strings.TrimSpace(quoted)
	}
	if strings.HasPrefix(text, "Token") {
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return ""
		}
		return fields[len(fields)-1]
	}
	return text
}
