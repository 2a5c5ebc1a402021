package engine

import "sheetcore/comments"

// commentMutation wraps a comment-store mutation in an undo command,
// capturing a whole-store snapshot beforehand — comment history per sheet
// is small enough that snapshot/restore is simpler than threading a
// precise inverse through every one of the store's eight mutators.
func (e *Engine) commentMutation(kind, description string, fn func() error) error {
	prev := e.comments.Serialize()
	apply := func() error {
		if err := fn(); err != nil {
			return err
		}
		e.bumpAndNotify(nil)
		return nil
	}
	revert := func() error {
		if err := e.comments.Deserialize(prev); err != nil {
			return err
		}
		e.bumpAndNotify(nil)
		return nil
	}
	return e.undoRedo.Do(newCommand(kind, description, approxCellBytes, apply, revert))
}

func (e *Engine) AddCommentThread(row, col int, author comments.Author, text string) (string, error) {
	var id string
	err := e.commentMutation("addCommentThread", "Add comment", func() error {
		var aerr error
		id, aerr = e.comments.AddThread(row, col, author, text)
		return aerr
	})
	return id, err
}

func (e *Engine) AddComment(threadID string, author comments.Author, text string) (string, error) {
	var id string
	err := e.commentMutation("addComment", "Reply to comment", func() error {
		var aerr error
		id, aerr = e.comments.AddComment(threadID, author, text)
		return aerr
	})
	return id, err
}

func (e *Engine) UpdateComment(threadID, commentID, newText string) error {
	return e.commentMutation("updateComment", "Edit comment", func() error {
		return e.comments.UpdateComment(threadID, commentID, newText)
	})
}

func (e *Engine) DeleteComment(threadID, commentID, userID string) error {
	return e.commentMutation("deleteComment", "Delete comment", func() error {
		return e.comments.DeleteComment(threadID, commentID, userID)
	})
}

func (e *Engine) UndeleteComment(threadID, commentID string) error {
	return e.commentMutation("undeleteComment", "Restore comment", func() error {
		return e.comments.UndeleteComment(threadID, commentID)
	})
}

func (e *Engine) DeleteThread(threadID string) error {
	return e.commentMutation("deleteThread", "Delete comment thread", func() error {
		return e.comments.DeleteThread(threadID)
	})
}

func (e *Engine) ResolveThread(threadID, userID string) error {
	return e.commentMutation("resolveThread", "Resolve comment thread", func() error {
		return e.comments.ResolveThread(threadID, userID)
	})
}

func (e *Engine) UnresolveThread(threadID string) error {
	return e.commentMutation("unresolveThread", "Reopen comment thread", func() error {
		return e.comments.UnresolveThread(threadID)
	})
}

// Reads pass straight through; nothing to record.
func (e *Engine) HasComments(row, col int) bool { return e.comments.HasComments(row, col) }
func (e *Engine) ThreadsAtCell(row, col int) []*comments.Thread {
	return e.comments.ThreadsAtCell(row, col)
}
func (e *Engine) ThreadByID(id string) (*comments.Thread, bool) { return e.comments.ThreadByID(id) }
func (e *Engine) ThreadsByAuthor(authorID string) []*comments.Thread {
	return e.comments.ThreadsByAuthor(authorID)
}
func (e *Engine) ThreadsContainingText(substr string) []*comments.Thread {
	return e.comments.ThreadsContainingText(substr)
}
