// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package gemini

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cinefill/cinefill/internal/models"
)

// minSuggestionYear and maxSuggestionYear bound what counts as a
// plausible release year in a suggestion line.
const (
	minSuggestionYear = 1900
	maxSuggestionYear = 2030
)

// titleYearPattern matches "Some Title (1999)" with optional trailing
// noise after the closing parenthesis.
var titleYearPattern = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)`)

// numberedPrefixPattern matches leading list numbering like "12. ".
var numberedPrefixPattern = regexp.MustCompile(`^\d+\.\s+`)

// ParseSuggestions extracts structured candidates from the model's free
// text. Lines that are blank, markdown decoration, missing a
// parenthesized year, or carrying an implausible year are dropped.
func ParseSuggestions(text string) []models.Candidate {
	var candidates []models.Candidate

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "*") {
			continue
		}

		line = numberedPrefixPattern.ReplaceAllString(line, "")

		m := titleYearPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		title := strings.TrimSpace(m[1])
		year, err := strconv.Atoi(m[2])
		if err != nil || title == "" {
			continue
		}
		if year < minSuggestionYear || year > maxSuggestionYear {
			continue
		}

		candidates = append(candidates, models.Candidate{Title: title, Year: year})
	}

	return candidates
}
