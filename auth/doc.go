// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth implements stateless bearer tokens and password hashing.

# Tokens

Tokens are HMAC-SHA256 signed claim payloads:

	base64url(claims-json) "." base64url(signature)

GenerateToken signs with the secret from the server configuration; there
is no module-level secret. ValidateToken verifies the signature before
decoding and rejects expired claims with ErrTokenExpired.

# Passwords

HashPassword / VerifyPassword use HMAC-SHA256 keyed with the server
secret, compared in constant time.
*/
package auth
