package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing takes incoming",
			incoming: NewLabel("recall.hot", "recall"),
			want:     NewLabel("recall.hot", "recall"),
		},
		{
			name:     "empty incoming keeps existing",
			existing: NewLabel("recall.copurchase", "recall"),
			want:     NewLabel("recall.copurchase", "recall"),
		},
		{
			name:     "same source is not repeated",
			existing: NewLabel("recall.copurchase", "recall"),
			incoming: NewLabel("recall.hot", "recall"),
			want:     NewLabel("recall.copurchase|recall.hot", "recall"),
		},
		{
			name:     "different sources accumulate",
			existing: NewLabel("a", "recall"),
			incoming: NewLabel("b", "rerank"),
			want:     NewLabel("a|b", "recall,rerank"),
		},
		{
			name:     "missing source filled from incoming",
			existing: NewLabel("a", ""),
			incoming: NewLabel("b", "filter"),
			want:     NewLabel("a|b", "filter"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}
