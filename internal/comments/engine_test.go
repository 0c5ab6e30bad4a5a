package comments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"writely_client/internal/model"
)

// mockAPI implements API with per-test behavior, in the same func-field
// style the service-layer tests use.
type mockAPI struct {
	mu sync.Mutex

	listFn   func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error)
	createFn func(ctx context.Context, blogID, message string, parentID *string) (string, error)
	reactFn  func(ctx context.Context, commentID, blogID, key string) error

	listCalls   []listCall
	createCalls []createCall
	reactCalls  []reactCall
}

type listCall struct {
	BlogID string
	Page   int
}

type createCall struct {
	BlogID   string
	Message  string
	ParentID *string
}

type reactCall struct {
	CommentID string
	Key       string
}

func (m *mockAPI) ListComments(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, listCall{BlogID: blogID, Page: page})
	m.mu.Unlock()
	if m.listFn != nil {
		return m.listFn(ctx, blogID, page)
	}
	return nil, 0, nil
}

func (m *mockAPI) CreateComment(ctx context.Context, blogID, message string, parentID *string) (string, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, createCall{BlogID: blogID, Message: message, ParentID: parentID})
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, blogID, message, parentID)
	}
	return "new-id", nil
}

func (m *mockAPI) ReactToComment(ctx context.Context, commentID, blogID, key string) error {
	m.mu.Lock()
	m.reactCalls = append(m.reactCalls, reactCall{CommentID: commentID, Key: key})
	m.mu.Unlock()
	if m.reactFn != nil {
		return m.reactFn(ctx, commentID, blogID, key)
	}
	return nil
}

func (m *mockAPI) listCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listCalls)
}

func (m *mockAPI) reactCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reactCalls)
}

func node(id string, likes int, liked bool, replies ...*model.Comment) *model.Comment {
	for _, r := range replies {
		p := id
		r.ParentID = &p
	}
	return &model.Comment{
		ID:        id,
		Message:   "message " + id,
		BlogID:    "blog-1",
		Likes:     likes,
		LikedByMe: liked,
		Replies:   replies,
	}
}

// threeLevelForest: c1 is a root with child c2, which has child c3.
func threeLevelForest() []*model.Comment {
	return []*model.Comment{
		node("c1", 1, false,
			node("c2", 2, false,
				node("c3", 3, false),
			),
		),
		node("c4", 0, false),
	}
}

func loadedEngine(t *testing.T, api *mockAPI, forest []*model.Comment, total int) *Engine {
	t.Helper()
	prev := api.listFn
	api.listFn = func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
		return forest, total, nil
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	if err := e.LoadPage(context.Background(), 0); err != nil {
		t.Fatalf("load page 0: %v", err)
	}
	api.listFn = prev
	return e
}

func TestLoadPage_PageZeroReplaces(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
			return []*model.Comment{node("c1", 0, false), node("c2", 0, false)}, 2, nil
		},
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	ctx := context.Background()

	if err := e.LoadPage(ctx, 0); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := e.LoadPage(ctx, 0); err != nil {
		t.Fatalf("second load: %v", err)
	}

	roots := e.Roots()
	if len(roots) != 2 {
		t.Errorf("len(roots) = %d after double page-0 load, want 2", len(roots))
	}
	if e.Total() != 2 {
		t.Errorf("total = %d, want 2", e.Total())
	}
	if e.State() != StateLoaded {
		t.Errorf("state = %v, want StateLoaded", e.State())
	}
}

func TestLoadPage_LaterPagesAppendInOrder(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
			return []*model.Comment{
				node(fmt.Sprintf("p%d-a", page), 0, false),
				node(fmt.Sprintf("p%d-b", page), 0, false),
			}, 6, nil
		},
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	ctx := context.Background()

	for page := 0; page <= 2; page++ {
		if err := e.LoadPage(ctx, page); err != nil {
			t.Fatalf("load page %d: %v", page, err)
		}
	}

	roots := e.Roots()
	want := []string{"p0-a", "p0-b", "p1-a", "p1-b", "p2-a", "p2-b"}
	if len(roots) != len(want) {
		t.Fatalf("len(roots) = %d, want %d", len(roots), len(want))
	}
	for i, id := range want {
		if roots[i].ID != id {
			t.Errorf("roots[%d].ID = %q, want %q", i, roots[i].ID, id)
		}
	}
}

func TestTriggerLoadMore_AdvancesPage(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
			return []*model.Comment{node(fmt.Sprintf("p%d", page), 0, false)}, 3, nil
		},
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	ctx := context.Background()

	if err := e.LoadPage(ctx, 0); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := e.TriggerLoadMore(ctx); err != nil {
		t.Fatalf("load more: %v", err)
	}

	api.mu.Lock()
	last := api.listCalls[len(api.listCalls)-1]
	api.mu.Unlock()
	if last.Page != 1 {
		t.Errorf("load-more fetched page %d, want 1", last.Page)
	}
}

func TestTriggerLoadMore_StopsWhenAllLoaded(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
			return []*model.Comment{node("only", 0, false)}, 1, nil
		},
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	ctx := context.Background()

	if err := e.LoadPage(ctx, 0); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := e.TriggerLoadMore(ctx); err != nil {
		t.Fatalf("load more: %v", err)
	}

	if got := api.listCount(); got != 1 {
		t.Errorf("list called %d times, want 1 (all roots already loaded)", got)
	}
}

func TestTriggerLoadMore_NoOverlappingFetches(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &mockAPI{
		listFn: func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
			close(started)
			<-release
			return []*model.Comment{node("c1", 0, false)}, 5, nil
		},
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- e.LoadPage(ctx, 0) }()
	<-started

	// A trigger while the first fetch is outstanding must be a no-op.
	if err := e.TriggerLoadMore(ctx); err != nil {
		t.Fatalf("load more: %v", err)
	}
	if got := api.listCount(); got != 1 {
		t.Errorf("list called %d times during in-flight load, want 1", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestSetBlog_DiscardsStaleResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &mockAPI{
		listFn: func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
			if blogID == "blog-old" {
				close(started)
				<-release
				return []*model.Comment{node("stale", 0, false)}, 1, nil
			}
			return []*model.Comment{node("fresh", 0, false)}, 1, nil
		},
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-old")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- e.LoadPage(ctx, 0) }()
	<-started

	// Navigate away while the old blog's page is still in flight.
	e.SetBlog("blog-new")
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stale load should be silently discarded, got %v", err)
	}

	if len(e.Roots()) != 0 {
		t.Errorf("stale response merged into new blog's forest: %v", e.Roots())
	}

	// The new blog loads normally afterwards.
	if err := e.LoadPage(ctx, 0); err != nil {
		t.Fatalf("fresh load: %v", err)
	}
	roots := e.Roots()
	if len(roots) != 1 || roots[0].ID != "fresh" {
		t.Errorf("roots = %v, want the fresh page", roots)
	}
}

func TestToggleLike_LeafUpdatesOnlyThatNode(t *testing.T) {
	api := &mockAPI{}
	e := loadedEngine(t, api, threeLevelForest(), 2)

	if err := e.ToggleLike(context.Background(), "c3"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	c3 := e.Find("c3")
	if c3.Likes != 4 || !c3.LikedByMe {
		t.Errorf("c3 = likes %d likedByMe %v, want 4 true", c3.Likes, c3.LikedByMe)
	}

	// Ancestors and siblings are untouched.
	if c1 := e.Find("c1"); c1.Likes != 1 || c1.LikedByMe {
		t.Errorf("c1 mutated: likes %d likedByMe %v", c1.Likes, c1.LikedByMe)
	}
	if c2 := e.Find("c2"); c2.Likes != 2 || c2.LikedByMe {
		t.Errorf("c2 mutated: likes %d likedByMe %v", c2.Likes, c2.LikedByMe)
	}
	if c4 := e.Find("c4"); c4.Likes != 0 || c4.LikedByMe {
		t.Errorf("c4 mutated: likes %d likedByMe %v", c4.Likes, c4.LikedByMe)
	}
}

func TestToggleLike_RoundTrip(t *testing.T) {
	api := &mockAPI{}
	e := loadedEngine(t, api, []*model.Comment{node("c1", 3, false)}, 1)
	ctx := context.Background()

	if err := e.ToggleLike(ctx, "c1"); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	c1 := e.Find("c1")
	if c1.Likes != 4 || !c1.LikedByMe {
		t.Errorf("after like: likes %d likedByMe %v, want 4 true", c1.Likes, c1.LikedByMe)
	}

	if err := e.ToggleLike(ctx, "c1"); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	c1 = e.Find("c1")
	if c1.Likes != 3 || c1.LikedByMe {
		t.Errorf("after dislike: likes %d likedByMe %v, want 3 false", c1.Likes, c1.LikedByMe)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.reactCalls) != 2 {
		t.Fatalf("react called %d times, want 2", len(api.reactCalls))
	}
	if api.reactCalls[0].Key != model.ReactionLike || api.reactCalls[1].Key != model.ReactionDislike {
		t.Errorf("react keys = %q, %q; want like, dislike", api.reactCalls[0].Key, api.reactCalls[1].Key)
	}
}

func TestToggleLike_ClampsAtZero(t *testing.T) {
	api := &mockAPI{}
	e := loadedEngine(t, api, []*model.Comment{node("c1", 0, true)}, 1)

	if err := e.ToggleLike(context.Background(), "c1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	c1 := e.Find("c1")
	if c1.Likes != 0 {
		t.Errorf("likes = %d, want 0 (clamped, never negative)", c1.Likes)
	}
	if c1.LikedByMe {
		t.Error("likedByMe should be false after dislike")
	}
}

func TestToggleLike_FailurePreservesState(t *testing.T) {
	api := &mockAPI{
		reactFn: func(ctx context.Context, commentID, blogID, key string) error {
			return errors.New("backend down")
		},
	}
	e := loadedEngine(t, api, []*model.Comment{node("c1", 3, false)}, 1)

	if err := e.ToggleLike(context.Background(), "c1"); err == nil {
		t.Fatal("expected error")
	}

	c1 := e.Find("c1")
	if c1.Likes != 3 || c1.LikedByMe {
		t.Errorf("state mutated on failure: likes %d likedByMe %v, want 3 false", c1.Likes, c1.LikedByMe)
	}
}

func TestToggleLike_SerializedPerComment(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &mockAPI{
		reactFn: func(ctx context.Context, commentID, blogID, key string) error {
			close(started)
			<-release
			return nil
		},
	}
	e := loadedEngine(t, api, []*model.Comment{node("c1", 3, false)}, 1)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- e.ToggleLike(ctx, "c1") }()
	<-started

	// Second toggle while the first is pending is ignored.
	if err := e.ToggleLike(ctx, "c1"); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if got := e.Find("c1").Likes; got != 3 {
		t.Errorf("likes = %d before confirmation, want 3", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first toggle: %v", err)
	}

	if got := api.reactCount(); got != 1 {
		t.Errorf("react called %d times, want 1", got)
	}
	c1 := e.Find("c1")
	if c1.Likes != 4 || !c1.LikedByMe {
		t.Errorf("final state: likes %d likedByMe %v, want 4 true", c1.Likes, c1.LikedByMe)
	}
}

func TestPostComment_EmptyMessageRejectedBeforeNetwork(t *testing.T) {
	api := &mockAPI{}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")

	for _, message := range []string{"", "   ", "\n\t "} {
		err := e.PostComment(context.Background(), message, nil)
		if !errors.Is(err, model.ErrEmptyMessage) {
			t.Errorf("PostComment(%q) = %v, want ErrEmptyMessage", message, err)
		}
	}

	if len(api.createCalls) != 0 {
		t.Errorf("create called %d times for empty messages, want 0", len(api.createCalls))
	}
}

func TestPostComment_RootRefetchesPageZero(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
			return []*model.Comment{node("server-c1", 0, false)}, 1, nil
		},
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	ctx := context.Background()

	if err := e.PostComment(ctx, "first!", nil); err != nil {
		t.Fatalf("post: %v", err)
	}

	api.mu.Lock()
	if len(api.createCalls) != 1 {
		t.Fatalf("create called %d times, want 1", len(api.createCalls))
	}
	if api.createCalls[0].ParentID != nil {
		t.Error("root comment should carry nil parentId")
	}
	last := api.listCalls[len(api.listCalls)-1]
	api.mu.Unlock()
	if last.Page != 0 {
		t.Errorf("root post re-fetched page %d, want 0", last.Page)
	}

	roots := e.Roots()
	if len(roots) != 1 || roots[0].ID != "server-c1" {
		t.Errorf("roots = %v, want the re-fetched page", roots)
	}
}

func TestPostComment_RootDuringInFlightLoadStillRefetches(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var first sync.Once
	api := &mockAPI{}
	api.listFn = func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
		blocked := false
		first.Do(func() { blocked = true })
		if blocked {
			close(started)
			<-release
			return []*model.Comment{node("old-c1", 0, false)}, 1, nil
		}
		return []*model.Comment{node("new-root", 0, false), node("old-c1", 0, false)}, 2, nil
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- e.LoadPage(ctx, 0) }()
	<-started

	// Post a root while the page load is still outstanding.
	if err := e.PostComment(ctx, "first!", nil); err != nil {
		t.Fatalf("post: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("load: %v", err)
	}

	// The in-flight load completed and then re-issued page 0.
	if got := api.listCount(); got != 2 {
		t.Fatalf("list called %d times, want 2 (blocked page plus refresh)", got)
	}
	api.mu.Lock()
	last := api.listCalls[len(api.listCalls)-1]
	api.mu.Unlock()
	if last.Page != 0 {
		t.Errorf("refresh fetched page %d, want 0", last.Page)
	}
	roots := e.Roots()
	if len(roots) != 2 || roots[0].ID != "new-root" {
		t.Errorf("roots = %v, want the refreshed page with the new root first", roots)
	}
}

func TestPostComment_ReplyInsertedAtHeadWithoutRefetch(t *testing.T) {
	api := &mockAPI{
		createFn: func(ctx context.Context, blogID, message string, parentID *string) (string, error) {
			return "reply-9", nil
		},
	}
	author := func() model.CommentAuthor {
		return model.CommentAuthor{ID: "u1", FullName: "Ada Lovelace"}
	}
	forest := []*model.Comment{node("c1", 0, false), node("c2", 0, false)}
	prevList := api.listFn
	api.listFn = func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
		return forest, 2, nil
	}
	e := NewEngine(api, nil, author)
	e.SetBlog("blog-1")
	ctx := context.Background()
	if err := e.LoadPage(ctx, 0); err != nil {
		t.Fatalf("load: %v", err)
	}
	api.listFn = prevList
	listCallsBefore := api.listCount()

	parentID := "c1"
	if err := e.PostComment(ctx, "nice post", &parentID); err != nil {
		t.Fatalf("reply: %v", err)
	}

	c1 := e.Find("c1")
	if len(c1.Replies) != 1 {
		t.Fatalf("c1 has %d replies, want 1", len(c1.Replies))
	}
	reply := c1.Replies[0]
	if reply.ID != "reply-9" {
		t.Errorf("reply.ID = %q, want backend-assigned %q", reply.ID, "reply-9")
	}
	if reply.Message != "nice post" {
		t.Errorf("reply.Message = %q, want %q", reply.Message, "nice post")
	}
	if reply.ParentID == nil || *reply.ParentID != "c1" {
		t.Errorf("reply.ParentID = %v, want c1", reply.ParentID)
	}
	if reply.Likes != 0 || reply.LikedByMe {
		t.Errorf("new reply = likes %d likedByMe %v, want 0 false", reply.Likes, reply.LikedByMe)
	}
	if reply.Author.FullName != "Ada Lovelace" {
		t.Errorf("reply.Author = %v, want session author", reply.Author)
	}

	// No network re-fetch and no change to root ordering.
	if got := api.listCount(); got != listCallsBefore {
		t.Errorf("reply triggered %d extra list calls, want 0", got-listCallsBefore)
	}
	roots := e.Roots()
	if roots[0].ID != "c1" || roots[1].ID != "c2" {
		t.Errorf("root order changed: %v", roots)
	}
}

func TestPostComment_SecondReplyPrepends(t *testing.T) {
	ids := []string{"r1", "r2"}
	api := &mockAPI{
		createFn: func(ctx context.Context, blogID, message string, parentID *string) (string, error) {
			id := ids[0]
			ids = ids[1:]
			return id, nil
		},
	}
	e := loadedEngine(t, api, []*model.Comment{node("c1", 0, false)}, 1)
	ctx := context.Background()

	parentID := "c1"
	if err := e.PostComment(ctx, "first reply", &parentID); err != nil {
		t.Fatalf("reply 1: %v", err)
	}
	if err := e.PostComment(ctx, "second reply", &parentID); err != nil {
		t.Fatalf("reply 2: %v", err)
	}

	replies := e.Find("c1").Replies
	if len(replies) != 2 {
		t.Fatalf("got %d replies, want 2", len(replies))
	}
	// Newest first.
	if replies[0].ID != "r2" || replies[1].ID != "r1" {
		t.Errorf("reply order = [%s %s], want [r2 r1]", replies[0].ID, replies[1].ID)
	}
}

func TestReplyDrafts_ArePerNode(t *testing.T) {
	e := NewEngine(&mockAPI{}, nil, nil)
	e.SetBlog("blog-1")

	e.SetReplyDraft("c1", "draft one")
	e.SetReplyDraft("c2", "draft two")

	// Opening one box does not close another.
	if text, ok := e.ReplyDraft("c1"); !ok || text != "draft one" {
		t.Errorf("c1 draft = %q ok=%v, want %q true", text, ok, "draft one")
	}
	if text, ok := e.ReplyDraft("c2"); !ok || text != "draft two" {
		t.Errorf("c2 draft = %q ok=%v, want %q true", text, ok, "draft two")
	}

	e.ClearReplyDraft("c1")
	if _, ok := e.ReplyDraft("c1"); ok {
		t.Error("c1 draft should be cleared")
	}
	if _, ok := e.ReplyDraft("c2"); !ok {
		t.Error("c2 draft should survive clearing c1")
	}
}

func TestSetBlog_ResetsForestAndPaging(t *testing.T) {
	api := &mockAPI{
		listFn: func(ctx context.Context, blogID string, page int) ([]*model.Comment, int, error) {
			return []*model.Comment{node("c-"+blogID, 0, false)}, 1, nil
		},
	}
	e := NewEngine(api, nil, nil)
	e.SetBlog("blog-1")
	ctx := context.Background()
	if err := e.LoadPage(ctx, 0); err != nil {
		t.Fatalf("load: %v", err)
	}

	e.SetBlog("blog-2")
	if e.State() != StateIdle {
		t.Errorf("state after switch = %v, want StateIdle", e.State())
	}
	if len(e.Roots()) != 0 {
		t.Errorf("roots not cleared on blog switch: %v", e.Roots())
	}
	if e.Total() != -1 {
		t.Errorf("total = %d after switch, want -1 (unknown)", e.Total())
	}
}

func TestLoadPage_WithoutBlogFails(t *testing.T) {
	e := NewEngine(&mockAPI{}, nil, nil)
	if err := e.LoadPage(context.Background(), 0); !errors.Is(err, model.ErrNoBlogSelected) {
		t.Errorf("err = %v, want ErrNoBlogSelected", err)
	}
}
