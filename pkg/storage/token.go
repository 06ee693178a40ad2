package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenSigner issues and verifies HMAC-signed download tokens so export
// files can be fetched without a session.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenSigner constructs a signer. A non-positive TTL falls back to
// 24 hours.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}
}

// Issue returns a token binding the export ID to its archived file.
func (s *TokenSigner) Issue(exportID, filename string) (string, time.Time, error) {
	if exportID == "" || filename == "" {
		return "", time.Time{}, fmt.Errorf("export ID and filename required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(filename))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{exportID, exp, encoded, s.sign(exportID, exp, encoded)}, ".")
	return token, expiresAt, nil
}

// Verify checks the signature and expiry and returns the embedded
// export ID and filename.
func (s *TokenSigner) Verify(token string) (exportID, filename string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("malformed token")
	}
	exportID, exp, encoded, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(exportID, exp, encoded)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", fmt.Errorf("invalid token signature")
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid token timestamp")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("token expired")
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("decode filename: %w", err)
	}
	return exportID, string(raw), nil
}

func (s *TokenSigner) sign(exportID, exp, encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", exportID, exp, encoded)
	return hex.EncodeToString(mac.Sum(nil))
}
