package journal

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJournal(t *testing.T, j *Journal) {
	t.Helper()
	ctx := context.Background()
	types := []string{"TODO_ADD", "TODO_TOGGLE", "TODO_ADD", "TODO_CLEAR"}
	for i, typ := range types {
		e := testEntry(fmt.Sprintf("d-%d", i+1), int64(i+1), typ)
		if typ == "TODO_CLEAR" {
			e.Source = "SERVER_ACTION"
			e.Error = "boom"
		}
		require.NoError(t, j.Record(ctx, e))
	}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.DispatchID
	}
	return out
}

func TestList(t *testing.T) {
	j := createTestJournal(t)
	seedJournal(t, j)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"d-1", "d-2", "d-3", "d-4"}},
		{"by type", Filter{Type: "TODO_ADD"}, []string{"d-1", "d-3"}},
		{"by source", Filter{Source: "SERVER_ACTION"}, []string{"d-4"}},
		{"errors only", Filter{ErrorsOnly: true}, []string{"d-4"}},
		{"limit", Filter{Limit: 2}, []string{"d-1", "d-2"}},
		{"combined", Filter{Type: "TODO_ADD", Limit: 1}, []string{"d-1"}},
		{"no match", Filter{Type: "NOPE"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := j.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(entries))
		})
	}
}

func TestList_IncludesHandlers(t *testing.T) {
	j := createTestJournal(t)
	seedJournal(t, j)

	entries, err := j.List(context.Background(), Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"TodoStore", "StatsStore"}, entries[0].Stores)
}

func TestGet_NotFound(t *testing.T) {
	j := createTestJournal(t)
	_, err := j.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCount(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	seedJournal(t, j)
	n, err = j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
