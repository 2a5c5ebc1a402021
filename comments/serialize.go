package comments

import (
	"time"

	"sheetcore/sherr"
)

const wireVersion = 1

// WireComment and WireThread are the JSON-shaped serialization records.
type WireComment struct {
	ID        string `json:"id"`
	AuthorID  string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
	EditedAt  int64  `json:"editedAt,omitempty"`
	DeletedAt int64  `json:"deletedAt,omitempty"`
	DeletedBy string `json:"deletedBy,omitempty"`
}

type WireThread struct {
	ID         string        `json:"id"`
	Row        int           `json:"row"`
	Col        int           `json:"col"`
	Comments   []WireComment `json:"comments"`
	Resolved   bool          `json:"resolved"`
	ResolvedBy string        `json:"resolvedBy,omitempty"`
	ResolvedAt int64         `json:"resolvedAt,omitempty"`
	CreatedAt  int64         `json:"createdAt"`
}

type WireMetadata struct {
	CreatedAt    int64 `json:"createdAt"`
	LastModified int64 `json:"lastModified"`
	ThreadCount  int   `json:"threadCount"`
	CommentCount int   `json:"commentCount"`
}

// WireSnapshot is the top-level serialized shape.
type WireSnapshot struct {
	Version  int          `json:"version"`
	Threads  []WireThread `json:"threads"`
	Metadata WireMetadata `json:"metadata"`
}

// Serialize snapshots the whole store.
func (s *Store) Serialize() WireSnapshot {
	now := s.now()
	var threads []WireThread
	commentCount := 0
	var earliest int64
	for _, t := range s.threads {
		wt := WireThread{
			ID: t.ID, Row: t.Row, Col: t.Col,
			Resolved: t.Resolved, ResolvedBy: t.ResolvedBy,
			CreatedAt: t.CreatedAt.UnixMilli(),
		}
		if t.ResolvedAt != nil {
			wt.ResolvedAt = t.ResolvedAt.UnixMilli()
		}
		if earliest == 0 || wt.CreatedAt < earliest {
			earliest = wt.CreatedAt
		}
		for _, c := range t.Comments {
			wc := WireComment{
				ID: c.ID, AuthorID: c.Author.ID, AuthorName: c.Author.DisplayName,
				Text: c.Text, CreatedAt: c.CreatedAt.UnixMilli(),
			}
			if c.EditedAt != nil {
				wc.EditedAt = c.EditedAt.UnixMilli()
			}
			if c.DeletedAt != nil {
				wc.DeletedAt = c.DeletedAt.UnixMilli()
			}
			wc.DeletedBy = c.DeletedBy
			wt.Comments = append(wt.Comments, wc)
			commentCount++
		}
		threads = append(threads, wt)
	}
	return WireSnapshot{
		Version: wireVersion,
		Threads: threads,
		Metadata: WireMetadata{
			CreatedAt:    earliest,
			LastModified: now.UnixMilli(),
			ThreadCount:  len(threads),
			CommentCount: commentCount,
		},
	}
}

// Deserialize clears all state and rebuilds both indices from snap.
// A version mismatch is fatal and leaves the store untouched.
func (s *Store) Deserialize(snap WireSnapshot) error {
	if snap.Version != wireVersion {
		return sherr.New(sherr.UnsupportedFormat, "comment store version %d unsupported (want %d)", snap.Version, wireVersion)
	}
	threads := make(map[string]*Thread, len(snap.Threads))
	byCell := make(map[cellKey][]string)
	for _, wt := range snap.Threads {
		t := &Thread{
			ID: wt.ID, Row: wt.Row, Col: wt.Col,
			Resolved: wt.Resolved, ResolvedBy: wt.ResolvedBy,
			CreatedAt: msToTime(wt.CreatedAt),
		}
		if wt.ResolvedAt != 0 {
			rt := msToTime(wt.ResolvedAt)
			t.ResolvedAt = &rt
		}
		for _, wc := range wt.Comments {
			c := &Comment{
				ID:     wc.ID,
				Author: Author{ID: wc.AuthorID, DisplayName: wc.AuthorName},
				Text:   wc.Text, CreatedAt: msToTime(wc.CreatedAt),
			}
			if wc.EditedAt != 0 {
				et := msToTime(wc.EditedAt)
				c.EditedAt = &et
			}
			if wc.DeletedAt != 0 {
				dt := msToTime(wc.DeletedAt)
				c.DeletedAt = &dt
				c.DeletedBy = wc.DeletedBy
			}
			t.Comments = append(t.Comments, c)
		}
		threads[t.ID] = t
		k := cellKey{t.Row, t.Col}
		byCell[k] = append(byCell[k], t.ID)
	}
	s.threads = threads
	s.byCell = byCell
	s.events = nil
	s.bump()
	return nil
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
