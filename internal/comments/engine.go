// Package comments maintains the in-memory comment forest for one blog
// post: paginated root loading, reply insertion, and per-node like
// toggling. The engine is detached from any view layer; hosts feed it
// scroll positions and user actions and read the forest back.
package comments

import (
	"context"
	"log"
	"strings"
	"sync"

	"writely_client/internal/model"
	"writely_client/internal/notify"
)

// API is the slice of the backend the engine needs.
type API interface {
	ListComments(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error)
	CreateComment(ctx context.Context, blogID, message string, parentID *string) (string, error)
	ReactToComment(ctx context.Context, commentID, blogID, key string) error
}

// State is the engine's lifecycle for the selected blog.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
)

// AuthorFunc supplies the display identity for locally synthesized replies,
// normally backed by the session store.
type AuthorFunc func() model.CommentAuthor

// Engine owns the comment forest for the currently selected blog. All
// mutations go through it; the forest has exactly one writer.
type Engine struct {
	mu     sync.Mutex
	api    API
	notify notify.Notifier
	author AuthorFunc

	blogID   string
	state    State
	roots    []*model.Comment
	total    int
	lastPage int

	// gen is bumped whenever the selected blog changes. In-flight
	// responses carry the gen they were issued under; a mismatch on
	// completion means the user navigated away and the result is dropped.
	gen     int
	loading bool

	// refetchRoots marks that a root comment was posted while a page load
	// was in flight; the load re-issues page 0 when it completes.
	refetchRoots bool

	likeInFlight map[string]bool
	drafts       map[string]string
}

// NewEngine builds an engine. A nil notifier discards toasts; a nil author
// yields anonymous local replies.
func NewEngine(api API, notifier notify.Notifier, author AuthorFunc) *Engine {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if author == nil {
		author = func() model.CommentAuthor { return model.CommentAuthor{} }
	}
	return &Engine{
		api:          api,
		notify:       notifier,
		author:       author,
		total:        -1,
		lastPage:     -1,
		likeInFlight: make(map[string]bool),
		drafts:       make(map[string]string),
	}
}

// SetBlog selects the post whose comments the engine manages. Switching
// blogs resets the forest and page index and invalidates every outstanding
// request for the previous blog.
func (e *Engine) SetBlog(blogID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.blogID == blogID {
		return
	}
	e.blogID = blogID
	e.state = StateIdle
	e.roots = nil
	e.total = -1
	e.lastPage = -1
	e.gen++
	e.loading = false
	e.refetchRoots = false
	e.drafts = make(map[string]string)
}

// LoadPage fetches one page of root comments. Page 0 replaces the root
// list; later pages append. Re-fetching page 0 is idempotent. Only one load
// may be in flight; a second call while one is pending is a no-op.
func (e *Engine) LoadPage(ctx context.Context, page int) error {
	e.mu.Lock()
	if e.blogID == "" {
		e.mu.Unlock()
		return model.ErrNoBlogSelected
	}
	if e.loading {
		e.mu.Unlock()
		return nil
	}
	e.loading = true
	e.state = StateLoading
	blogID, gen := e.blogID, e.gen
	e.mu.Unlock()

	roots, total, err := e.api.ListComments(ctx, blogID, page)

	e.mu.Lock()
	if e.gen != gen {
		// Superseded by a blog switch; the result belongs to a forest that
		// no longer exists.
		e.mu.Unlock()
		log.Printf("[Comments] Discarding stale page %d for blog %s", page, blogID)
		return nil
	}
	e.loading = false

	if err != nil {
		if len(e.roots) > 0 {
			e.state = StateLoaded
		} else {
			e.state = StateIdle
		}
	} else {
		if page == 0 {
			e.roots = roots
		} else {
			e.roots = append(e.roots, roots...)
		}
		e.total = total
		e.lastPage = page
		e.state = StateLoaded
	}
	refetch := e.refetchRoots
	e.refetchRoots = false
	e.mu.Unlock()

	// A root comment landed while this load was in flight; its promised
	// page-0 refresh runs now that the load slot is free.
	if refetch {
		if rerr := e.LoadPage(ctx, 0); err == nil {
			err = rerr
		}
	}
	return err
}

// TriggerLoadMore advances to the next root page. No-op while a load is in
// flight or when every root is already present.
func (e *Engine) TriggerLoadMore(ctx context.Context) error {
	e.mu.Lock()
	if e.blogID == "" || e.loading {
		e.mu.Unlock()
		return nil
	}
	if e.total >= 0 && len(e.roots) >= e.total {
		e.mu.Unlock()
		return nil
	}
	next := e.lastPage + 1
	e.mu.Unlock()

	return e.LoadPage(ctx, next)
}

// HandleScroll feeds a scroll event into the engine and loads the next page
// when the viewport is near the bottom.
func (e *Engine) HandleScroll(ctx context.Context, scrollTop, clientHeight, scrollHeight float64) error {
	if !ShouldLoadMore(scrollTop, clientHeight, scrollHeight) {
		return nil
	}
	return e.TriggerLoadMore(ctx)
}

// PostComment sends a new comment. Empty or whitespace-only messages are
// rejected before any network call. A nil parentID posts a root comment and
// re-fetches page 0; a reply is inserted locally at the head of the
// parent's replies using the backend-assigned ID.
func (e *Engine) PostComment(ctx context.Context, message string, parentID *string) error {
	if strings.TrimSpace(message) == "" {
		return model.ErrEmptyMessage
	}

	e.mu.Lock()
	blogID, gen := e.blogID, e.gen
	e.mu.Unlock()
	if blogID == "" {
		return model.ErrNoBlogSelected
	}

	id, err := e.api.CreateComment(ctx, blogID, message, parentID)
	if err != nil {
		return err
	}

	if parentID == nil {
		e.notify.Success("Comment Posted Successfully")
		e.mu.Lock()
		if e.gen != gen {
			e.mu.Unlock()
			return nil
		}
		if e.loading {
			// A page load is in flight and LoadPage would no-op; hand the
			// refresh to it instead.
			e.refetchRoots = true
			e.mu.Unlock()
			return nil
		}
		e.mu.Unlock()
		return e.LoadPage(ctx, 0)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return nil
	}

	parent := findByID(e.roots, *parentID)
	if parent == nil {
		return model.ErrCommentNotFound
	}

	reply := &model.Comment{
		ID:       id,
		Message:  message,
		Author:   e.author(),
		BlogID:   blogID,
		ParentID: parentID,
		Replies:  []*model.Comment{},
	}
	parent.Replies = append([]*model.Comment{reply}, parent.Replies...)
	delete(e.drafts, *parentID)

	e.notify.Success("Replied Successfully")
	return nil
}

// ToggleLike flips the caller's reaction on one comment, wherever it sits
// in the forest. The local mutation is applied only after the backend
// confirms; on failure the pre-toggle state is preserved. Toggles on the
// same comment are serialized: a second toggle while one is pending is
// ignored.
func (e *Engine) ToggleLike(ctx context.Context, commentID string) error {
	e.mu.Lock()
	node := findByID(e.roots, commentID)
	if node == nil {
		e.mu.Unlock()
		return model.ErrCommentNotFound
	}
	if e.likeInFlight[commentID] {
		e.mu.Unlock()
		return nil
	}

	key := model.ReactionLike
	if node.LikedByMe {
		key = model.ReactionDislike
	}
	e.likeInFlight[commentID] = true
	blogID, gen := e.blogID, e.gen
	e.mu.Unlock()

	err := e.api.ReactToComment(ctx, commentID, blogID, key)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.likeInFlight, commentID)

	if err != nil {
		return err
	}
	if e.gen != gen {
		return nil
	}

	// Re-resolve by ID: the topology may have changed while the request
	// was outstanding.
	node = findByID(e.roots, commentID)
	if node == nil {
		return nil
	}

	if key == model.ReactionDislike {
		node.LikedByMe = false
		if node.Likes > 0 {
			node.Likes--
		}
		e.notify.Success("Comment Disliked Successfully")
	} else {
		node.LikedByMe = true
		node.Likes++
		e.notify.Success("Comment Liked Successfully")
	}
	return nil
}

// SetReplyDraft opens (or updates) the reply box under one comment. Drafts
// are per-node; any number may be open at once.
func (e *Engine) SetReplyDraft(commentID, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drafts[commentID] = text
}

// ReplyDraft returns the open draft under a comment, if any.
func (e *Engine) ReplyDraft(commentID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	text, ok := e.drafts[commentID]
	return text, ok
}

// ClearReplyDraft closes the reply box under one comment.
func (e *Engine) ClearReplyDraft(commentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.drafts, commentID)
}

// Roots returns the current root comments in load order. Callers treat the
// nodes as read-only; all mutation goes through the engine.
func (e *Engine) Roots() []*model.Comment {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*model.Comment, len(e.roots))
	copy(out, e.roots)
	return out
}

// Find returns the comment with the given ID at any depth, or nil.
func (e *Engine) Find(commentID string) *model.Comment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return findByID(e.roots, commentID)
}

// Total returns the root-comment count reported by the backend, or -1 while
// unknown.
func (e *Engine) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// State returns the engine's lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// BlogID returns the selected blog.
func (e *Engine) BlogID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blogID
}
