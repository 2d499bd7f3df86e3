// Package auth handles the broker login flow: the credential file, TOTP
// generation and the authorization-code token exchange. The rest of the
// pipeline only ever sees the resulting bearer token string.
package auth

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Credentials is the on-disk credential document. The access token and its
// expiry are rewritten after every successful login; the rest is user-managed.
type Credentials struct {
	APIKey      string `yaml:"api_key"`
	APISecret   string `yaml:"api_secret"`
	RedirectURL string `yaml:"redirect_url"`
	TOTPSecret  string `yaml:"totp_secret"`
	AccessToken string `yaml:"access_token"`
	ExpiryDate  string `yaml:"expiry_date"` // "2006-01-02", the option expiry the token was issued for
}

// TokenValid reports whether a token is present and its recorded expiry date
// has not passed.
func (c Credentials) TokenValid(now time.Time) bool {
	if c.AccessToken == "" || c.ExpiryDate == "" {
		return false
	}
	expiry, err := time.Parse("2006-01-02", c.ExpiryDate)
	if err != nil {
		return false
	}
	return !now.After(expiry.AddDate(0, 0, 1)) // token good through the expiry day itself
}

// Store reads and rewrites the credential file.
type Store struct {
	Path string
}

// Load parses the credential file.
func (s *Store) Load() (Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials file: %w", err)
	}
	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials file %s: %w", s.Path, err)
	}
	return creds, nil
}

// Save rewrites the credential file via a temp file and rename so a crash
// mid-write cannot leave a truncated document.
func (s *Store) Save(creds Credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replacing credentials file: %w", err)
	}
	return nil
}

// UpdateToken loads the file, replaces the token and expiry, and writes it
// back, leaving the other fields untouched.
func (s *Store) UpdateToken(token, expiryDate string) error {
	creds, err := s.Load()
	if err != nil {
		return err
	}
	creds.AccessToken = token
	creds.ExpiryDate = expiryDate
	return s.Save(creds)
}
