package merge

import "testing"

func TestMergeAndIsMerged(t *testing.T) {
	m := New(nil)
	if err := m.Merge(Range{0, 0, 1, 1}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !m.IsMerged(0, 0) || !m.IsMerged(1, 1) {
		t.Fatal("expected all member cells merged")
	}
	if !m.IsMergeAnchor(0, 0) {
		t.Fatal("expected (0,0) to be the anchor")
	}
	if m.IsMergeAnchor(1, 1) {
		t.Fatal("(1,1) should not be the anchor")
	}
}

func TestMergeRejectsOverlap(t *testing.T) {
	m := New(nil)
	if err := m.Merge(Range{0, 0, 2, 2}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := m.Merge(Range{1, 1, 3, 3}); err == nil {
		t.Fatal("expected Conflict error for overlapping merge")
	}
}

func TestUnmergeRemovesRegion(t *testing.T) {
	m := New(nil)
	m.Merge(Range{0, 0, 1, 1})
	m.Unmerge(Range{0, 0, 0, 0})
	if m.IsMerged(0, 0) || m.IsMerged(1, 1) {
		t.Fatal("expected region fully removed after unmerge")
	}
}

func TestGetEditTargetRedirectsToAnchor(t *testing.T) {
	m := New(nil)
	m.Merge(Range{2, 2, 4, 4})
	ar, ac, rs, cs := m.GetEditTarget(3, 3)
	if ar != 2 || ac != 2 || rs != 3 || cs != 3 {
		t.Fatalf("GetEditTarget = (%d,%d,%d,%d), want (2,2,3,3)", ar, ac, rs, cs)
	}
}

func TestGetDisplayRangeUnmergedIsSingleCell(t *testing.T) {
	m := New(nil)
	r := m.GetDisplayRange(5, 5)
	if r != (Range{5, 5, 5, 5}) {
		t.Fatalf("unmerged display range = %+v, want single cell", r)
	}
}

func TestExpandRangeToIncludeMergesFromMemberCell(t *testing.T) {
	m := New(nil)
	m.Merge(Range{0, 0, 1, 1})
	selection := Range{1, 1, 1, 1} // touches the merge only at its corner
	expanded := m.ExpandRangeToIncludeMerges(selection)
	if expanded != (Range{0, 0, 1, 1}) {
		t.Fatalf("expanded = %+v, want %+v", expanded, Range{0, 0, 1, 1})
	}
}
