package jumio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kycore/internal/kyc/driver"
)

// tokenSource caches the OAuth2 client-credentials access token.
type tokenSource struct {
	mu      sync.Mutex
	token   string
	expires time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (d *Driver) accessToken(ctx context.Context) (string, error) {
	d.tokens.mu.Lock()
	defer d.tokens.mu.Unlock()

	now := d.now()
	if d.tokens.token != "" && now.Before(d.tokens.expires.Add(-tokenLeeway)) {
		return d.tokens.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(d.cfg.AuthURL, "/")+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", driver.NewProviderError(driver.ErrorInternal, Name, "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(d.cfg.ClientID, d.cfg.ClientSecret)

	res, err := d.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return "", driver.NewProviderError(driver.ErrorAuthentication, Name,
			fmt.Sprintf("token endpoint returned %d", res.StatusCode), nil)
	}
	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil || tr.AccessToken == "" {
		return "", driver.NewProviderError(driver.ErrorBadData, Name, "decode token response", err)
	}

	d.tokens.token = tr.AccessToken
	d.tokens.expires = tokenExpiry(tr, now)
	return d.tokens.token, nil
}

// tokenExpiry prefers the exp claim of the JWT access token and falls back to
// expires_in. The token is opaque to us, so its signature is not verified.
func tokenExpiry(tr tokenResponse, now time.Time) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if tr.ExpiresIn > 0 {
		return now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return now
}
