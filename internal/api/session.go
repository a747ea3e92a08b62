// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionCookie carries the signed session token in the browser.
const sessionCookie = "cinefill_session"

// sessionClaims binds a browser session to one Trakt username.
type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// sessionCodec signs and verifies session tokens (HS256).
type sessionCodec struct {
	secret []byte
	maxAge time.Duration
}

func newSessionCodec(secret string, maxAge time.Duration) *sessionCodec {
	return &sessionCodec{secret: []byte(secret), maxAge: maxAge}
}

// issue creates a signed token for the username.
func (c *sessionCodec) issue(username string, now time.Time) (string, error) {
	claims := sessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// verify parses the token and returns the bound username.
func (c *sessionCodec) verify(raw string) (string, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid || claims.Username == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.Username, nil
}

// setCookie writes the session cookie on the response.
func (c *sessionCodec) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie expires the session cookie.
func (c *sessionCodec) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
