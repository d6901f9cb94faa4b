// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"reflect"
	"testing"
	"time"
)

func TestPaperStatusAdvances(t *testing.T) {
	tests := []struct {
		name string
		from PaperStatus
		to   PaperStatus
		want bool
	}{
		{"pending to fetched", PaperPending, PaperFetched, true},
		{"pending to analyzed", PaperPending, PaperAnalyzed, true},
		{"pending to failed", PaperPending, PaperFailed, true},
		{"fetched to analyzed", PaperFetched, PaperAnalyzed, true},
		{"fetched to pending regresses", PaperFetched, PaperPending, false},
		{"analyzed to fetched regresses", PaperAnalyzed, PaperFetched, false},
		{"analyzed to failed is lateral", PaperAnalyzed, PaperFailed, false},
		{"failed to analyzed is lateral", PaperFailed, PaperAnalyzed, false},
		{"same status", PaperFetched, PaperFetched, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.Advances(tt.to); got != tt.want {
				t.Errorf("%s.Advances(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestPaperMetaMergeFrom(t *testing.T) {
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		base  PaperMeta
		other PaperMeta
		want  PaperMeta
	}{
		{
			name:  "fills empty fields",
			base:  PaperMeta{ID: "2501.00001", Source: "arxiv"},
			other: PaperMeta{ID: "2501.00001", Title: "T", Authors: []string{"A"}, Abstract: "abs", Date: date, Source: "arxiv", PDFURL: "u"},
			want:  PaperMeta{ID: "2501.00001", Title: "T", Authors: []string{"A"}, Abstract: "abs", Date: date, Source: "arxiv", PDFURL: "u"},
		},
		{
			name:  "keeps existing fields",
			base:  PaperMeta{ID: "x", Title: "Kept", Abstract: "kept", Source: "arxiv"},
			other: PaperMeta{ID: "x", Title: "Other", Abstract: "other", Source: "arxiv"},
			want:  PaperMeta{ID: "x", Title: "Kept", Abstract: "kept", Source: "arxiv"},
		},
		{
			name:  "concatenates distinct sources",
			base:  PaperMeta{ID: "10.1/abc", Source: "arxiv"},
			other: PaperMeta{ID: "10.1/abc", Source: "openalex"},
			want:  PaperMeta{ID: "10.1/abc", Source: "arxiv,openalex"},
		},
		{
			name:  "does not duplicate a known source",
			base:  PaperMeta{ID: "x", Source: "arxiv,openalex"},
			other: PaperMeta{ID: "x", Source: "openalex"},
			want:  PaperMeta{ID: "x", Source: "arxiv,openalex"},
		},
		{
			name:  "adopts source when empty",
			base:  PaperMeta{ID: "x"},
			other: PaperMeta{ID: "x", Source: "openalex"},
			want:  PaperMeta{ID: "x", Source: "openalex"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.base
			got.MergeFrom(tt.other)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeFrom() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
