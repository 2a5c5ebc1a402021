// Package comments implements thread-indexed cell comments: dual
// cell/thread indices, structural-edit-aware movement, soft-deleted
// comments, and a versioned event stream for external observers.
//
// Grounded on sheetcore/interpreter's dual-map bookkeeping style (a
// primary id-keyed store plus a secondary reverse index kept coherent by
// every mutating method), and on sheetcore/spreadsheet's
// millisecond-timestamp id convention, generalized to
// google/uuid-suffixed wire ids.
package comments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sheetcore/sherr"
)

// Author identifies a comment's writer.
type Author struct {
	ID          string
	DisplayName string
}

// Comment is one message inside a Thread.
type Comment struct {
	ID        string
	Author    Author
	Text      string
	CreatedAt time.Time
	EditedAt  *time.Time
	DeletedAt *time.Time
	DeletedBy string
}

// Thread anchors a Comment list to a cell.
type Thread struct {
	ID         string
	Row, Col   int
	Comments   []*Comment
	Resolved   bool
	ResolvedBy string
	ResolvedAt *time.Time
	CreatedAt  time.Time
}

// EventKind tags one entry of the analytics event stream.
type EventKind string

const (
	EventThreadAdded       EventKind = "thread-added"
	EventCommentAdded      EventKind = "comment-added"
	EventCommentUpdated    EventKind = "comment-updated"
	EventCommentDeleted    EventKind = "comment-deleted"
	EventThreadResolved    EventKind = "thread-resolved"
	EventThreadUnresolved  EventKind = "thread-unresolved"
	EventThreadDeleted     EventKind = "thread-deleted"
	EventThreadMoved       EventKind = "thread-moved"
)

// Event is one emitted analytics record.
type Event struct {
	Kind      EventKind
	ThreadID  string
	CommentID string
	Row, Col  int
	At        time.Time
}

type cellKey struct{ row, col int }

// Store is the comment-thread repository.
type Store struct {
	threads map[string]*Thread
	byCell  map[cellKey][]string // ordered thread ids

	version int64
	events  []Event

	nowFn func() time.Time // overridable for deterministic tests
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		threads: make(map[string]*Thread),
		byCell:  make(map[cellKey][]string),
		nowFn:   time.Now,
	}
}

func (s *Store) now() time.Time { return s.nowFn() }

func validateCell(row, col int) error {
	if row < 0 || col < 0 {
		return sherr.New(sherr.InvalidArgument, "cell coordinates must be non-negative, got (%d,%d)", row, col)
	}
	return nil
}

func validateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 1 || len(trimmed) > 10000 {
		return "", sherr.New(sherr.InvalidArgument, "comment text must be 1..10000 characters after trimming, got %d", len(trimmed))
	}
	return trimmed, nil
}

func validateAuthor(a Author) error {
	if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.DisplayName) == "" {
		return sherr.New(sherr.InvalidArgument, "author requires a non-empty id and displayName")
	}
	return nil
}

// threadWireID formats "t_<ms-since-epoch>_<uuid-v4>", a chronologically
// sortable wire identifier.
func threadWireID(at time.Time) string {
	return fmt.Sprintf("t_%d_%s", at.UnixMilli(), uuid.NewString())
}

func commentWireID(at time.Time) string {
	return fmt.Sprintf("c_%d_%s", at.UnixMilli(), uuid.NewString())
}

func (s *Store) bump() { s.version++ }

func (s *Store) emit(e Event) {
	s.events = append(s.events, e)
}

// AddThread creates a new thread at (row, col) with an initial comment
// and returns its thread id.
func (s *Store) AddThread(row, col int, author Author, text string) (string, error) {
	if err := validateCell(row, col); err != nil {
		return "", err
	}
	if err := validateAuthor(author); err != nil {
		return "", err
	}
	trimmed, err := validateText(text)
	if err != nil {
		return "", err
	}
	now := s.now()
	threadID := threadWireID(now)
	comment := &Comment{ID: commentWireID(now), Author: author, Text: trimmed, CreatedAt: now}
	thread := &Thread{ID: threadID, Row: row, Col: col, Comments: []*Comment{comment}, CreatedAt: now}

	s.threads[threadID] = thread
	k := cellKey{row, col}
	s.byCell[k] = append(s.byCell[k], threadID)
	s.bump()
	s.emit(Event{Kind: EventThreadAdded, ThreadID: threadID, Row: row, Col: col, At: now})
	s.emit(Event{Kind: EventCommentAdded, ThreadID: threadID, CommentID: comment.ID, Row: row, Col: col, At: now})
	return threadID, nil
}

// AddComment appends a comment to an existing thread and returns its id.
func (s *Store) AddComment(threadID string, author Author, text string) (string, error) {
	thread, ok := s.threads[threadID]
	if !ok {
		return "", sherr.New(sherr.NotFound, "thread %q not found", threadID)
	}
	if err := validateAuthor(author); err != nil {
		return "", err
	}
	trimmed, err := validateText(text)
	if err != nil {
		return "", err
	}
	now := s.now()
	comment := &Comment{ID: commentWireID(now), Author: author, Text: trimmed, CreatedAt: now}
	thread.Comments = append(thread.Comments, comment)
	s.bump()
	s.emit(Event{Kind: EventCommentAdded, ThreadID: threadID, CommentID: comment.ID, Row: thread.Row, Col: thread.Col, At: now})
	return comment.ID, nil
}

func (s *Store) findComment(threadID, commentID string) (*Thread, *Comment, error) {
	thread, ok := s.threads[threadID]
	if !ok {
		return nil, nil, sherr.New(sherr.NotFound, "thread %q not found", threadID)
	}
	for _, c := range thread.Comments {
		if c.ID == commentID {
			return thread, c, nil
		}
	}
	return nil, nil, sherr.New(sherr.NotFound, "comment %q not found in thread %q", commentID, threadID)
}

// UpdateComment rewrites a comment's text and stamps editedAt.
func (s *Store) UpdateComment(threadID, commentID, newText string) error {
	thread, comment, err := s.findComment(threadID, commentID)
	if err != nil {
		return err
	}
	trimmed, err := validateText(newText)
	if err != nil {
		return err
	}
	now := s.now()
	comment.Text = trimmed
	comment.EditedAt = &now
	s.bump()
	s.emit(Event{Kind: EventCommentUpdated, ThreadID: threadID, CommentID: commentID, Row: thread.Row, Col: thread.Col, At: now})
	return nil
}

// DeleteComment soft-deletes a comment: sets deletedAt/deletedBy but
// keeps it in the thread for audit/undelete.
func (s *Store) DeleteComment(threadID, commentID, userID string) error {
	thread, comment, err := s.findComment(threadID, commentID)
	if err != nil {
		return err
	}
	now := s.now()
	comment.DeletedAt = &now
	comment.DeletedBy = userID
	s.bump()
	s.emit(Event{Kind: EventCommentDeleted, ThreadID: threadID, CommentID: commentID, Row: thread.Row, Col: thread.Col, At: now})
	return nil
}

// UndeleteComment clears a soft-deleted comment's deletion markers.
func (s *Store) UndeleteComment(threadID, commentID string) error {
	_, comment, err := s.findComment(threadID, commentID)
	if err != nil {
		return err
	}
	comment.DeletedAt = nil
	comment.DeletedBy = ""
	s.bump()
	return nil
}

// DeleteThread hard-deletes a thread and removes it from both indices.
func (s *Store) DeleteThread(threadID string) error {
	thread, ok := s.threads[threadID]
	if !ok {
		return sherr.New(sherr.NotFound, "thread %q not found", threadID)
	}
	delete(s.threads, threadID)
	k := cellKey{thread.Row, thread.Col}
	s.byCell[k] = removeString(s.byCell[k], threadID)
	if len(s.byCell[k]) == 0 {
		delete(s.byCell, k)
	}
	s.bump()
	s.emit(Event{Kind: EventThreadDeleted, ThreadID: threadID, Row: thread.Row, Col: thread.Col, At: s.now()})
	return nil
}

// ResolveThread marks a thread resolved.
func (s *Store) ResolveThread(threadID, userID string) error {
	thread, ok := s.threads[threadID]
	if !ok {
		return sherr.New(sherr.NotFound, "thread %q not found", threadID)
	}
	now := s.now()
	thread.Resolved = true
	thread.ResolvedBy = userID
	thread.ResolvedAt = &now
	s.bump()
	s.emit(Event{Kind: EventThreadResolved, ThreadID: threadID, Row: thread.Row, Col: thread.Col, At: now})
	return nil
}

// UnresolveThread clears a thread's resolved state.
func (s *Store) UnresolveThread(threadID string) error {
	thread, ok := s.threads[threadID]
	if !ok {
		return sherr.New(sherr.NotFound, "thread %q not found", threadID)
	}
	thread.Resolved = false
	thread.ResolvedBy = ""
	thread.ResolvedAt = nil
	s.bump()
	s.emit(Event{Kind: EventThreadUnresolved, ThreadID: threadID, Row: thread.Row, Col: thread.Col, At: s.now()})
	return nil
}

// HasComments reports whether (row, col) has any threads.
func (s *Store) HasComments(row, col int) bool {
	return len(s.byCell[cellKey{row, col}]) > 0
}

// ThreadsAtCell returns the ordered thread list for (row, col).
func (s *Store) ThreadsAtCell(row, col int) []*Thread {
	ids := s.byCell[cellKey{row, col}]
	out := make([]*Thread, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.threads[id])
	}
	return out
}

// ThreadByID looks up a thread directly.
func (s *Store) ThreadByID(id string) (*Thread, bool) {
	t, ok := s.threads[id]
	return t, ok
}

// ThreadsByAuthor returns every thread containing at least one comment
// by authorID.
func (s *Store) ThreadsByAuthor(authorID string) []*Thread {
	var out []*Thread
	for _, t := range s.threads {
		for _, c := range t.Comments {
			if c.Author.ID == authorID {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// ThreadsContainingText returns every thread with a comment whose text
// contains substr (case-insensitive).
func (s *Store) ThreadsContainingText(substr string) []*Thread {
	needle := strings.ToLower(substr)
	var out []*Thread
	for _, t := range s.threads {
		for _, c := range t.Comments {
			if strings.Contains(strings.ToLower(c.Text), needle) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Version returns the monotonically increasing mutation counter.
func (s *Store) Version() int64 { return s.version }

// Events returns every event emitted since the store was created (or
// last cleared by Deserialize).
func (s *Store) Events() []Event { return s.events }

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, s := range list {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// -- structural edits --

// OnRowsInserted moves every thread at row >= R down by k.
func (s *Store) OnRowsInserted(r, k int) {
	s.moveThreads(func(row, col int) (int, int, bool) {
		if row >= r {
			return row + k, col, true
		}
		return row, col, false
	}, func(row, col int) bool { return false })
}

// OnRowsDeleted hard-deletes threads in [R, R+k) and moves threads at
// row >= R+k up by k.
func (s *Store) OnRowsDeleted(r, k int) {
	s.moveThreads(func(row, col int) (int, int, bool) {
		if row >= r+k {
			return row - k, col, true
		}
		return row, col, false
	}, func(row, col int) bool { return row >= r && row < r+k })
}

// OnColumnsInserted is OnRowsInserted's column-axis twin.
func (s *Store) OnColumnsInserted(c, k int) {
	s.moveThreads(func(row, col int) (int, int, bool) {
		if col >= c {
			return row, col + k, true
		}
		return row, col, false
	}, func(row, col int) bool { return false })
}

// OnColumnsDeleted is OnRowsDeleted's column-axis twin.
func (s *Store) OnColumnsDeleted(c, k int) {
	s.moveThreads(func(row, col int) (int, int, bool) {
		if col >= c+k {
			return row, col - k, true
		}
		return row, col, false
	}, func(row, col int) bool { return col >= c && col < c+k })
}

func (s *Store) moveThreads(shift func(row, col int) (newRow, newCol int, moved bool), deleted func(row, col int) bool) {
	for id, t := range s.threads {
		if deleted(t.Row, t.Col) {
			s.removeFromCellIndex(t.Row, t.Col, id)
			delete(s.threads, id)
			s.bump()
			s.emit(Event{Kind: EventThreadDeleted, ThreadID: id, Row: t.Row, Col: t.Col, At: s.now()})
			continue
		}
		newRow, newCol, moved := shift(t.Row, t.Col)
		if !moved {
			continue
		}
		s.removeFromCellIndex(t.Row, t.Col, id)
		t.Row, t.Col = newRow, newCol
		k := cellKey{newRow, newCol}
		s.byCell[k] = append(s.byCell[k], id)
		s.bump()
		s.emit(Event{Kind: EventThreadMoved, ThreadID: id, Row: newRow, Col: newCol, At: s.now()})
	}
}

func (s *Store) removeFromCellIndex(row, col int, threadID string) {
	k := cellKey{row, col}
	s.byCell[k] = removeString(s.byCell[k], threadID)
	if len(s.byCell[k]) == 0 {
		delete(s.byCell, k)
	}
}
