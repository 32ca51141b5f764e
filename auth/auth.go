// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the signed payload carried by a bearer token. The full user
// record stays in the database; the token carries just enough to
// identify and authorize the caller.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"` // epoch seconds
}

// GenerateToken signs claims with the configured secret. The format is
// base64url(payload) "." base64url(HMAC-SHA256(secret, payload)),
// verifiable without any server-side session state.
func GenerateToken(claims Claims, secret string) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + signPayload(encoded, secret), nil
}

// ValidateToken verifies the signature and expiry of a token and returns
// its claims. The signature check runs before any payload decoding.
func ValidateToken(token, secret string) (Claims, error) {
	var claims Claims

	dot := strings.LastIndex(token, ".")
	if dot <= 0 || dot == len(token)-1 {
		return claims, ErrInvalidToken
	}
	encoded, sig := token[:dot], token[dot+1:]
	expected := signPayload(encoded, secret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return claims, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return claims, ErrInvalidToken
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return claims, ErrInvalidToken
	}
	if claims.ExpiresAt <= time.Now().Unix() {
		return Claims{}, ErrTokenExpired
	}
	return claims, nil
}

// ExpiryFrom computes a token expiry from the configured lifetime.
func ExpiryFrom(now time.Time, ttl time.Duration) int64 {
	return now.Add(ttl).Unix()
}

func signPayload(payload, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// HashPassword produces a salted one-way hash for storage. HMAC with the
// server secret keeps hashes unusable without the deployment's config.
func HashPassword(password, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyPassword checks a candidate password against a stored hash in
// constant time.
func VerifyPassword(password, hash, secret string) bool {
	expected := HashPassword(password, secret)
	return hmac.Equal([]byte(hash), []byte(expected))
}
