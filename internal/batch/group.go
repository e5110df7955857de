package batch

import (
	"slices"

	"github.com/meigma/multistream/internal/dumptype"
)

// Group is the set of records that live in the block at Offset.
// Records keep the order in which they were supplied.
type Group struct {
	Offset  uint64
	Records []dumptype.Record
}

// GroupByOffset partitions records by block offset.
//
// Groups are returned in ascending offset order. The input slice is not
// modified.
func GroupByOffset(records []dumptype.Record) []Group {
	if len(records) == 0 {
		return nil
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b dumptype.Record) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return 0
		}
	})

	groups := make([]Group, 0, len(sorted))
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].Offset == sorted[start].Offset {
			continue
		}
		groups = append(groups, Group{
			Offset:  sorted[start].Offset,
			Records: sorted[start:i:i],
		})
		start = i
	}
	return groups
}
