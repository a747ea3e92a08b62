// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package gemini

import (
	"fmt"
	"strings"

	"github.com/cinefill/cinefill/internal/models"
)

// PromptContext carries everything the prompt builder needs for one
// generation attempt.
type PromptContext struct {
	// History is the lookback-scoped watch history, including any
	// synthesized entries from earlier attempts.
	History []models.HistoryEntry

	// Window is the human-readable lookback period, e.g. "1 month".
	Window string

	// Genres optionally constrains suggestions to the named genres.
	Genres []string
}

// maxExamplesPerGenre bounds how many titles are listed per genre in the
// history summary, keeping the prompt short for heavy watchers.
const maxExamplesPerGenre = 3

// BuildPrompt renders the instruction prompt sent to the model. The model
// is told to answer with bare "Title (Year)" lines only; anything else is
// discarded by ParseSuggestions.
func BuildPrompt(promptCtx PromptContext) string {
	var sb strings.Builder

	sb.WriteString("You are a movie recommendation expert. Based on the user's recent watch history, provide 50 movie recommendations.\n\n")
	fmt.Fprintf(&sb, "User's watch history (%s):\n%s\n", promptCtx.Window, summarizeHistory(promptCtx.History))

	sb.WriteString(`
Instructions:
1. Analyze their viewing patterns and preferences
2. Suggest 50 movies total with the following mix:
   - 70% similar to what they've watched (same genres, themes, directors, or similar appeal)
   - 30% slightly different to help them discover new content (different but complementary genres or styles)
3. Focus on well-known, popular movies that are likely to be in movie databases
4. Include movies from different decades (not just recent releases)
5. Avoid suggesting movies they've already watched
6. Ensure recommendations are accessible and mainstream enough to be found in databases`)

	if len(promptCtx.Genres) > 0 {
		fmt.Fprintf(&sb, "\nIMPORTANT: Only suggest movies from these genres: %s", strings.Join(promptCtx.Genres, ", "))
	}

	sb.WriteString(`

Please respond with ONLY the movie titles, one per line, in this format:
Movie Title (Year)

Example:
The Dark Knight (2008)
Inception (2010)
Pulp Fiction (1994)

Do not include any explanations, introductions, or additional text. Just the movie titles with years.
`)

	return sb.String()
}

// summarizeHistory renders the history as a per-genre breakdown with a
// few example titles each. Entries without genres (synthesized ones in
// particular) are listed under a shared bucket so the model still sees
// them and avoids repeating prior suggestions.
func summarizeHistory(history []models.HistoryEntry) string {
	if len(history) == 0 {
		return "No watch history available."
	}

	byGenre := make(map[string][]string)
	var genreOrder []string
	add := func(genre, title string) {
		if _, ok := byGenre[genre]; !ok {
			genreOrder = append(genreOrder, genre)
		}
		byGenre[genre] = append(byGenre[genre], title)
	}

	for _, e := range history {
		label := fmt.Sprintf("%s (%d)", e.Title, e.Year)
		if len(e.Genres) == 0 {
			add("Other", label)
			continue
		}
		for _, g := range e.Genres {
			add(g, label)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "User has watched %d movies recently. Genre breakdown:\n", len(history))
	for _, genre := range genreOrder {
		titles := byGenre[genre]
		examples := titles
		if len(examples) > maxExamplesPerGenre {
			examples = examples[:maxExamplesPerGenre]
		}
		fmt.Fprintf(&sb, "- %s: %d movies (e.g., %s)\n", genre, len(titles), strings.Join(examples, ", "))
	}
	return sb.String()
}
