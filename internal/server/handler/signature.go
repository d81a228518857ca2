// Package handler provides the HTTP handlers for the webhook receiver.
package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Signature verification errors. Missing and mismatched signatures are
// authentication failures; an unsupported algorithm is a malformed request.
var (
	ErrMissingSignature     = errors.New("missing X-Hub-Signature-256 header")
	ErrUnsupportedAlgorithm = errors.New("signature header does not use sha256")
	ErrSignatureMismatch    = errors.New("payload signature mismatch")
)

// VerifySignature checks the HMAC-SHA256 signature GitHub sends with every
// webhook delivery. The header carries "sha256=<hex digest>" computed over
// the raw request body with the shared webhook secret.
//
// An empty secret disables verification entirely; the caller is expected to
// have logged a severe warning at startup for that configuration.
func VerifySignature(secret string, body []byte, header string) error {
	if secret == "" {
		return nil
	}
	if header == "" {
		return ErrMissingSignature
	}

	algo, theirHex, found := strings.Cut(header, "=")
	if !found || algo != "sha256" {
		return ErrUnsupportedAlgorithm
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	ourHex := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(ourHex), []byte(theirHex)) {
		return ErrSignatureMismatch
	}
	return nil
}
