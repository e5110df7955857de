package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/multistream/internal/dumptype"
)

func TestGroupByOffset(t *testing.T) {
	t.Parallel()

	records := []dumptype.Record{
		{Offset: 300, ID: 7},
		{Offset: 100, ID: 2},
		{Offset: 300, ID: 5},
		{Offset: 0, ID: 9},
		{Offset: 100, ID: 1},
	}
	original := append([]dumptype.Record(nil), records...)

	groups := GroupByOffset(records)
	require.Len(t, groups, 3)

	assert.Equal(t, uint64(0), groups[0].Offset)
	assert.Equal(t, []dumptype.Record{{Offset: 0, ID: 9}}, groups[0].Records)

	assert.Equal(t, uint64(100), groups[1].Offset)
	assert.Equal(t, []dumptype.Record{{Offset: 100, ID: 2}, {Offset: 100, ID: 1}}, groups[1].Records)

	assert.Equal(t, uint64(300), groups[2].Offset)
	assert.Equal(t, []dumptype.Record{{Offset: 300, ID: 7}, {Offset: 300, ID: 5}}, groups[2].Records)

	assert.Equal(t, original, records, "input must not be reordered")
}

func TestGroupByOffset_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, GroupByOffset(nil))
}

func TestGroupByOffset_SingleGroup(t *testing.T) {
	t.Parallel()

	records := []dumptype.Record{{Offset: 5, ID: 3}, {Offset: 5, ID: 1}, {Offset: 5, ID: 2}}
	groups := GroupByOffset(records)
	require.Len(t, groups, 1)
	assert.Equal(t, records, groups[0].Records)

	// Appending to one group must not clobber another.
	groups[0].Records = append(groups[0].Records, dumptype.Record{ID: 99})
	assert.Len(t, records, 3)
}
