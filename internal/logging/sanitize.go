// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package logging

import "strings"

// SanitizeToken masks a credential, showing only first and last 4 characters.
// Used when logging OAuth access/refresh tokens and upstream API keys.
// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9" -> "eyJh...JXVCJ9"[:4+3+4]
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUsername masks a username, keeping the first 2 characters.
// Example: "johndoe" -> "jo***"
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeURL strips query parameters whose names suggest credentials
// (api_key, apikey, key, token) before a URL is logged.
func SanitizeURL(rawURL string) string {
	qIdx := strings.IndexByte(rawURL, '?')
	if qIdx < 0 {
		return rawURL
	}

	base := rawURL[:qIdx]
	params := strings.Split(rawURL[qIdx+1:], "&")
	kept := params[:0]
	for _, p := range params {
		name, _, _ := strings.Cut(p, "=")
		switch strings.ToLower(name) {
		case "api_key", "apikey", "key", "token", "access_token":
			kept = append(kept, name+"=***")
		default:
			kept = append(kept, p)
		}
	}
	return base + "?" + strings.Join(kept, "&")
}
