// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordGenerationRun(t *testing.T) {
	before := testutil.ToFloat64(GenerationRuns.WithLabelValues("success"))

	RecordGenerationRun("success", 2, 20, 5*time.Second)

	after := testutil.ToFloat64(GenerationRuns.WithLabelValues("success"))
	if after != before+1 {
		t.Errorf("success counter = %f, want %f", after, before+1)
	}
}

func TestRecordFiltered(t *testing.T) {
	reasons := []string{"watched", "duplicate", "low_quality", "unresolved", "genre"}
	for _, reason := range reasons {
		before := testutil.ToFloat64(CandidatesFiltered.WithLabelValues(reason))
		RecordFiltered(reason)
		after := testutil.ToFloat64(CandidatesFiltered.WithLabelValues(reason))
		if after != before+1 {
			t.Errorf("filtered[%s] = %f, want %f", reason, after, before+1)
		}
	}
}

func TestRecordUpstreamRequestOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"success", nil, "success"},
		{"error", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(UpstreamRequests.WithLabelValues("tmdb", "search", tt.outcome))
			RecordUpstreamRequest("tmdb", "search", 10*time.Millisecond, tt.err)
			after := testutil.ToFloat64(UpstreamRequests.WithLabelValues("tmdb", "search", tt.outcome))
			if after != before+1 {
				t.Errorf("upstream[%s] = %f, want %f", tt.outcome, after, before+1)
			}
		})
	}
}

func TestRecordReconcile(t *testing.T) {
	addedBefore := testutil.ToFloat64(ReconcileItemsAdded)
	removedBefore := testutil.ToFloat64(ReconcileItemsRemoved)
	failBefore := testutil.ToFloat64(ReconcileRuns.WithLabelValues("failure"))

	RecordReconcile(errors.New("trakt unavailable"), 3, 2)

	if got := testutil.ToFloat64(ReconcileItemsAdded); got != addedBefore+3 {
		t.Errorf("items added = %f, want %f", got, addedBefore+3)
	}
	if got := testutil.ToFloat64(ReconcileItemsRemoved); got != removedBefore+2 {
		t.Errorf("items removed = %f, want %f", got, removedBefore+2)
	}
	if got := testutil.ToFloat64(ReconcileRuns.WithLabelValues("failure")); got != failBefore+1 {
		t.Errorf("failure runs = %f, want %f", got, failBefore+1)
	}
}

func TestRecordHistoryFetch(t *testing.T) {
	before := testutil.ToFloat64(HistoryEntriesFetched.WithLabelValues("incremental"))

	RecordHistoryFetch(true, 2, 150)

	after := testutil.ToFloat64(HistoryEntriesFetched.WithLabelValues("incremental"))
	if after != before+150 {
		t.Errorf("incremental entries = %f, want %f", after, before+150)
	}
}
