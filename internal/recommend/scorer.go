// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package recommend

import "github.com/cinefill/cinefill/internal/models"

// Score weights for the quality formula. Vote average is rescaled by 10
// so all three components are commensurate with popularity's typical
// range; the vote-count term is capped so a single viral outlier cannot
// dominate.
const (
	popularityWeight  = 0.4
	voteAverageWeight = 0.4
	voteCountWeight   = 0.2
	voteCountCap      = 1000.0
)

// Score computes the quality score of an enriched item. Deterministic
// and free of I/O.
func Score(item models.EnrichedItem) float64 {
	credibility := float64(item.VoteCount) / voteCountCap
	if credibility > 1 {
		credibility = 1
	}
	return popularityWeight*item.Popularity +
		voteAverageWeight*(item.VoteAverage*10) +
		voteCountWeight*credibility
}
