package comments

import "testing"

var testAuthor = Author{ID: "u1", DisplayName: "Alice"}

func TestAddThreadAndComment(t *testing.T) {
	s := New()
	tid, err := s.AddThread(2, 3, testAuthor, "first comment")
	if err != nil {
		t.Fatalf("AddThread: %v", err)
	}
	if !s.HasComments(2, 3) {
		t.Fatal("expected HasComments true")
	}
	cid, err := s.AddComment(tid, testAuthor, "reply")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	thread, ok := s.ThreadByID(tid)
	if !ok || len(thread.Comments) != 2 {
		t.Fatalf("expected thread with 2 comments, got %+v", thread)
	}
	if thread.Comments[1].ID != cid {
		t.Fatal("second comment id mismatch")
	}
}

func TestValidationRejectsEmptyText(t *testing.T) {
	s := New()
	if _, err := s.AddThread(0, 0, testAuthor, "   "); err == nil {
		t.Fatal("expected validation error for blank text")
	}
}

func TestValidationRejectsNegativeCoords(t *testing.T) {
	s := New()
	if _, err := s.AddThread(-1, 0, testAuthor, "hi"); err == nil {
		t.Fatal("expected validation error for negative row")
	}
}

func TestSoftDeleteAndUndelete(t *testing.T) {
	s := New()
	tid, _ := s.AddThread(0, 0, testAuthor, "hello")
	thread, _ := s.ThreadByID(tid)
	cid := thread.Comments[0].ID

	if err := s.DeleteComment(tid, cid, "u1"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if thread.Comments[0].DeletedAt == nil {
		t.Fatal("expected DeletedAt set")
	}
	if err := s.UndeleteComment(tid, cid); err != nil {
		t.Fatalf("UndeleteComment: %v", err)
	}
	if thread.Comments[0].DeletedAt != nil {
		t.Fatal("expected DeletedAt cleared after undelete")
	}
}

func TestResolveUnresolve(t *testing.T) {
	s := New()
	tid, _ := s.AddThread(0, 0, testAuthor, "hello")
	if err := s.ResolveThread(tid, "u1"); err != nil {
		t.Fatalf("ResolveThread: %v", err)
	}
	thread, _ := s.ThreadByID(tid)
	if !thread.Resolved {
		t.Fatal("expected thread resolved")
	}
	s.UnresolveThread(tid)
	if thread.Resolved {
		t.Fatal("expected thread unresolved")
	}
}

func TestOnRowsInsertedMovesThread(t *testing.T) {
	s := New()
	tid, _ := s.AddThread(5, 0, testAuthor, "hi")
	s.OnRowsInserted(2, 3)
	thread, _ := s.ThreadByID(tid)
	if thread.Row != 8 {
		t.Fatalf("expected thread to move to row 8, got %d", thread.Row)
	}
	if s.HasComments(8, 0) != true || s.HasComments(5, 0) {
		t.Fatal("cell index not updated after move")
	}
}

func TestOnRowsDeletedRemovesThreadsInBand(t *testing.T) {
	s := New()
	tid, _ := s.AddThread(3, 0, testAuthor, "hi")
	s.OnRowsDeleted(1, 5) // deletes rows [1,6)
	if _, ok := s.ThreadByID(tid); ok {
		t.Fatal("expected thread inside deleted band to be removed")
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	s := New()
	tid, _ := s.AddThread(1, 1, testAuthor, "hello")
	s.AddComment(tid, testAuthor, "reply")

	snap := s.Serialize()
	if snap.Metadata.ThreadCount != 1 || snap.Metadata.CommentCount != 2 {
		t.Fatalf("unexpected metadata: %+v", snap.Metadata)
	}

	s2 := New()
	if err := s2.Deserialize(snap); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !s2.HasComments(1, 1) {
		t.Fatal("expected comments restored at (1,1)")
	}
}

func TestDeserializeRejectsUnknownVersion(t *testing.T) {
	s := New()
	err := s.Deserialize(WireSnapshot{Version: 99})
	if err == nil {
		t.Fatal("expected UnsupportedFormat error")
	}
}
