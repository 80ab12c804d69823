package buffer

import (
	"sort"

	"github.com/bethropolis/tomboy/internal/types"
)

// rangeSet is a sorted list of disjoint, non-touching ranges.
type rangeSet []types.Range

// index returns the position of the range containing offset, or -1.
func (s rangeSet) index(offset int) int {
	i := sort.Search(len(s), func(i int) bool { return s[i].End > offset })
	if i < len(s) && s[i].Start <= offset {
		return i
	}
	return -1
}

func (s rangeSet) contains(offset int) bool {
	return s.index(offset) >= 0
}

// add unions r into the set, merging overlapping and touching ranges.
func (s rangeSet) add(r types.Range) rangeSet {
	if r.Empty() {
		return s
	}
	out := make(rangeSet, 0, len(s)+1)
	inserted := false
	for _, cur := range s {
		switch {
		case cur.End < r.Start:
			out = append(out, cur)
		case cur.Start > r.End:
			if !inserted {
				out = append(out, r)
				inserted = true
			}
			out = append(out, cur)
		default:
			r.Start = min(r.Start, cur.Start)
			r.End = max(r.End, cur.End)
		}
	}
	if !inserted {
		out = append(out, r)
	}
	return out
}

// subtract removes r from the set, splitting ranges as needed.
func (s rangeSet) subtract(r types.Range) rangeSet {
	if r.Empty() {
		return s
	}
	out := make(rangeSet, 0, len(s)+1)
	for _, cur := range s {
		if cur.End <= r.Start || cur.Start >= r.End {
			out = append(out, cur)
			continue
		}
		if cur.Start < r.Start {
			out = append(out, types.Range{Start: cur.Start, End: r.Start})
		}
		if cur.End > r.End {
			out = append(out, types.Range{Start: r.End, End: cur.End})
		}
	}
	return out
}

// shiftInsert moves ranges for n characters inserted at offset. A range that
// strictly encloses offset grows; a range starting at offset moves right.
func (s rangeSet) shiftInsert(offset, n int) rangeSet {
	for i := range s {
		switch {
		case s[i].Start >= offset:
			s[i].Start += n
			s[i].End += n
		case s[i].End > offset:
			s[i].End += n
		}
	}
	return s
}

// shiftDelete collapses [start, end) out of every range.
func (s rangeSet) shiftDelete(start, end int) rangeSet {
	n := end - start
	mapPos := func(p int) int {
		switch {
		case p <= start:
			return p
		case p >= end:
			return p - n
		default:
			return start
		}
	}
	var out rangeSet
	for _, cur := range s {
		moved := types.Range{Start: mapPos(cur.Start), End: mapPos(cur.End)}
		out = out.add(moved)
	}
	return out
}

// clip returns the parts of the set inside r, relative to r.Start.
func (s rangeSet) clip(r types.Range) []types.Range {
	var out []types.Range
	for _, cur := range s {
		in := cur.Intersect(r)
		if in.Empty() {
			continue
		}
		out = append(out, types.Range{Start: in.Start - r.Start, End: in.End - r.Start})
	}
	return out
}
