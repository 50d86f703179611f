package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecentNewestFirst(t *testing.T) {
	j := NewMemory(3)
	ctx := context.Background()
	for _, tok := range []string{"a", "b", "c", "d"} {
		e, err := j.Record(ctx, Entry{Token: tok, Kind: "single"})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.At.IsZero())
	}

	got, err := j.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "d", got[0].Token)
	assert.Equal(t, "b", got[2].Token)
}

func TestMemoryRecentFilters(t *testing.T) {
	j := NewMemory(10)
	ctx := context.Background()
	_, _ = j.Record(ctx, Entry{Token: "a", Kind: "family"})
	_, _ = j.Record(ctx, Entry{Token: "b", Kind: "error"})
	_, _ = j.Record(ctx, Entry{Token: "c", Kind: "family"})

	got, err := j.Recent(ctx, Query{Kind: "family", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Token)

	got, _ = j.Recent(ctx, Query{Token: "b"})
	require.Len(t, got, 1)
	assert.Equal(t, "error", got[0].Kind)
}

func TestListQuery(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		where string
		args  []any
	}{
		{"no filters", Query{Limit: 50}, "", []any{50, 0}},
		{"kind", Query{Kind: "family", Limit: 10, Offset: 20}, " WHERE kind = $1", []any{"family", 10, 20}},
		{"kind and token", Query{Kind: "error", Token: "t", Limit: 5}, " WHERE kind = $1 AND token = $2", []any{"error", "t", 5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, args := listQuery(tt.query)
			assert.Contains(t, stmt, "FROM scan_outcomes"+tt.where+" ORDER BY")
			assert.Equal(t, tt.args, args)
		})
	}
}
