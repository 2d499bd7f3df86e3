package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// GenerateTOTP produces the 6-digit code for secret at the given instant.
func GenerateTOTP(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCode(secret, at)
	if err != nil {
		return "", fmt.Errorf("generating TOTP: %w", err)
	}
	return code, nil
}

// AuthorizeURL builds the browser authorization-dialog URL the user logs in
// through.
func AuthorizeURL(baseURL, apiKey, redirectURL string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", apiKey)
	q.Set("redirect_uri", redirectURL)
	return baseURL + "/v2/login/authorization/dialog?" + q.Encode()
}

// ExtractCode pulls the authorization code out of the pasted redirect URL.
func ExtractCode(redirect string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(redirect))
	if err != nil {
		return "", fmt.Errorf("parsing redirect URL: %w", err)
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect URL carries no code parameter")
	}
	return code, nil
}

// ExchangeCode swaps an authorization code for an access token via the
// form-encoded token endpoint.
func ExchangeCode(ctx context.Context, baseURL, code string, creds Credentials, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", creds.APIKey)
	form.Set("client_secret", creds.APISecret)
	form.Set("redirect_uri", creds.RedirectURL)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/v2/login/authorization/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response carries no access_token")
	}
	return tokenResp.AccessToken, nil
}
