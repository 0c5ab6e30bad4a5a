// Package apitest runs an in-memory Writely backend for tests: the same
// envelope contract, routes, and auth-failure messages as the real API,
// backed by maps instead of a database.
package apitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"writely_client/internal/httputil"
	"writely_client/internal/model"
)

const signingSecret = "apitest-secret"

type fakeUser struct {
	Info     model.UserInfo
	Perms    []model.Permission
	Password string
	Deleted  bool
}

// Server is the fake backend. Seed state through its methods, point a
// client at URL(), and inspect state afterwards.
type Server struct {
	mu       sync.Mutex
	users    map[string]*fakeUser // by ID
	byEmail  map[string]string    // email -> ID
	blogs    map[string]*model.Blog
	roots    map[string][]*model.Comment // blogID -> root comments, newest first
	requests []requestRecord
	pageSize int

	httpSrv *httptest.Server
}

type requestRecord struct {
	ID     string
	UserID string
	Status string
}

// NewServer starts the fake backend with a root-comment page size.
func NewServer(pageSize int) *Server {
	s := &Server{
		users:    make(map[string]*fakeUser),
		byEmail:  make(map[string]string),
		blogs:    make(map[string]*model.Blog),
		roots:    make(map[string][]*model.Comment),
		pageSize: pageSize,
	}
	s.httpSrv = httptest.NewServer(s.router())
	return s
}

// URL is the backend base URL.
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// Close shuts the backend down.
func (s *Server) Close() {
	s.httpSrv.Close()
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/reset-password", s.handleResetPassword)
		r.Post("/verify-reset-password", s.handleVerifyReset)
		r.With(s.requireAuth).Post("/logout", s.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/profile", s.handleProfile)

		r.Get("/blog/single", s.handleGetBlog)
		r.Get("/blog/comments", s.handleListComments)
		r.Post("/blog/comment", s.handleCreateComment)
		r.Post("/blog/react", s.handleBlogReact)
		r.Post("/blog/create", s.handleCreateBlog)
		r.Get("/blog/user/all", s.handleListUserBlogs)
		r.Post("/comment/react", s.handleCommentReact)

		r.Post("/request/create", s.handleCreateRequest)
		r.Get("/request/all", s.handleListRequests)
		r.Post("/request/approve", s.handleApproveRequest)
		r.Post("/request/reject", s.handleRejectRequest)
	})

	return r
}

// ---------------------------------------------------------------------------
// Seeding and token helpers

// SeedUser registers a user and returns its ID.
func (s *Server) SeedUser(email, password, role string, perms []model.Permission) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.users[id] = &fakeUser{
		Info: model.UserInfo{
			ID:        id,
			FirstName: strings.Split(email, "@")[0],
			LastName:  "Test",
			Email:     email,
			Role:      model.Role{ID: uuid.NewString(), Name: role, Username: role},
			Status:    "active",
		},
		Perms:    perms,
		Password: password,
	}
	s.byEmail[email] = id
	return id
}

// DeleteUser soft-deletes a user so its token yields the "User not found or
// deleted." failure.
func (s *Server) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Deleted = true
	}
}

// SeedBlog stores a blog and returns its ID.
func (s *Server) SeedBlog(title, ownerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	owner := model.BlogOwner{ID: ownerID}
	if u, ok := s.users[ownerID]; ok {
		owner.FullName = u.Info.FullName()
	}
	s.blogs[id] = &model.Blog{ID: id, Title: title, Owner: owner}
	return id
}

// SeedRootComment appends a root comment (oldest first in seeding order)
// and returns its ID.
func (s *Server) SeedRootComment(blogID, authorID, message string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.newComment(blogID, authorID, message, nil)
	// Seeded comments are appended so the first seeded root is served first.
	s.roots[blogID] = append(s.roots[blogID], c)
	return c.ID
}

// SeedReply nests a reply under parentID and returns its ID.
func (s *Server) SeedReply(blogID, parentID, authorID, message string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := findComment(s.roots[blogID], parentID)
	if parent == nil {
		return ""
	}
	c := s.newComment(blogID, authorID, message, &parentID)
	parent.Replies = append([]*model.Comment{c}, parent.Replies...)
	return c.ID
}

func (s *Server) newComment(blogID, authorID, message string, parentID *string) *model.Comment {
	author := model.CommentAuthor{ID: authorID}
	if u, ok := s.users[authorID]; ok {
		author.FirstName = u.Info.FirstName
		author.LastName = u.Info.LastName
		author.FullName = u.Info.FullName()
	}
	return &model.Comment{
		ID:       uuid.NewString(),
		Message:  message,
		Author:   author,
		BlogID:   blogID,
		ParentID: parentID,
		Replies:  []*model.Comment{},
	}
}

// TokenFor signs a valid token for a user.
func (s *Server) TokenFor(userID string) string {
	return s.signToken(userID, time.Now().Add(15*time.Minute))
}

// ExpiredTokenFor signs a token whose exp is in the past.
func (s *Server) ExpiredTokenFor(userID string) string {
	return s.signToken(userID, time.Now().Add(-time.Minute))
}

func (s *Server) signToken(userID string, expiry time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id": userID,
		"exp": expiry.Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(signingSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

// ---------------------------------------------------------------------------
// Auth

type contextKey string

const userIDKey contextKey = "user_id"

// requireAuth validates the bearer token and emits the platform's fixed
// auth-failure messages.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteUnauthorized(w, "Please Provide a Token.")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.WriteUnauthorized(w, "Invalid Token")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(signingSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				httputil.WriteUnauthorized(w, "Invalid or expired token.")
				return
			}
			httputil.WriteUnauthorized(w, "Invalid Token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			httputil.WriteUnauthorized(w, "Invalid Token")
			return
		}
		userID, _ := claims["_id"].(string)

		s.mu.Lock()
		user, exists := s.users[userID]
		deleted := exists && user.Deleted
		s.mu.Unlock()
		if !exists || deleted {
			httputil.WriteUnauthorized(w, "User not found or deleted.")
			return
		}

		next.ServeHTTP(w, requestWithUser(r, userID))
	})
}

func requestWithUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(contextWithUser(r.Context(), userID))
}

// ---------------------------------------------------------------------------
// Handlers

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	s.mu.Lock()
	id, ok := s.byEmail[req.Email]
	var user *fakeUser
	if ok {
		user = s.users[id]
	}
	s.mu.Unlock()

	if user == nil || user.Password != req.Password {
		httputil.WriteBadRequest(w, "Invalid email or password.")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Logged in Successfully", nil, map[string]string{
		"token": s.TokenFor(id),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	s.mu.Lock()
	_, exists := s.byEmail[req.Email]
	s.mu.Unlock()
	if exists {
		httputil.WriteBadRequest(w, "Email already registered.")
		return
	}

	id := s.SeedUser(req.Email, req.Password, model.RoleUser, nil)
	httputil.WriteSuccess(w, http.StatusCreated, "User created Successfully", nil, map[string]string{
		"token": s.TokenFor(id),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, "Logged out Successfully", nil, nil)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, "Reset mail sent", nil, nil)
}

func (s *Server) handleVerifyReset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") == "" {
		httputil.WriteBadRequest(w, "Reset token missing.")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Password updated Successfully", nil, nil)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	s.mu.Lock()
	user := s.users[userID]
	profile := model.Profile{UserInfo: user.Info, Permissions: user.Perms}
	s.mu.Unlock()

	httputil.WriteSuccess(w, http.StatusOK, "Profile fetched", profile, nil)
}

func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	blog, ok := s.blogs[r.URL.Query().Get("id")]
	var out model.Blog
	if ok {
		out = *blog
		out.Comments = len(s.roots[blog.ID])
	}
	s.mu.Unlock()

	if !ok {
		httputil.WriteNotFound(w, "Blog not found.")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Blog fetched", out, nil)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	blogID := r.URL.Query().Get("id")
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		page = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogs[blogID]; !ok {
		httputil.WriteNotFound(w, "Blog not found.")
		return
	}

	roots := s.roots[blogID]
	start := page * s.pageSize
	end := start + s.pageSize
	if start > len(roots) {
		start = len(roots)
	}
	if end > len(roots) {
		end = len(roots)
	}

	httputil.WriteSuccess(w, http.StatusOK, "Comments fetched",
		model.CommentPage{Comments: roots[start:end]},
		map[string]int{"total": len(roots)},
	)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httputil.WriteBadRequest(w, "Comment message is required.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogs[req.BlogID]; !ok {
		httputil.WriteNotFound(w, "Blog not found.")
		return
	}

	c := s.newComment(req.BlogID, userID, req.Message, req.ParentID)
	if req.ParentID == nil {
		// New roots go first so a page-0 re-fetch surfaces them.
		s.roots[req.BlogID] = append([]*model.Comment{c}, s.roots[req.BlogID]...)
	} else {
		parent := findComment(s.roots[req.BlogID], *req.ParentID)
		if parent == nil {
			httputil.WriteNotFound(w, "Parent comment not found.")
			return
		}
		parent.Replies = append([]*model.Comment{c}, parent.Replies...)
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Comment created Successfully",
		map[string]string{"_id": c.ID}, nil)
}

func (s *Server) handleCommentReact(w http.ResponseWriter, r *http.Request) {
	commentID := r.URL.Query().Get("commentId")
	blogID := r.URL.Query().Get("blogId")
	key := r.URL.Query().Get("key")

	s.mu.Lock()
	defer s.mu.Unlock()

	c := findComment(s.roots[blogID], commentID)
	if c == nil {
		httputil.WriteNotFound(w, "Comment not found.")
		return
	}

	switch key {
	case model.ReactionLike:
		c.Likes++
		c.LikedByMe = true
	case model.ReactionDislike:
		if c.Likes > 0 {
			c.Likes--
		}
		c.LikedByMe = false
	default:
		httputil.WriteBadRequest(w, "Unknown reaction key.")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Reaction recorded", nil, nil)
}

func (s *Server) handleBlogReact(w http.ResponseWriter, r *http.Request) {
	blogID := r.URL.Query().Get("id")
	key := r.URL.Query().Get("key")

	s.mu.Lock()
	defer s.mu.Unlock()

	blog, ok := s.blogs[blogID]
	if !ok {
		httputil.WriteNotFound(w, "Blog not found.")
		return
	}

	switch key {
	case model.ReactionLike:
		blog.Likes++
		blog.LikedByMe = true
	case model.ReactionDislike:
		if blog.Likes > 0 {
			blog.Likes--
		}
		blog.LikedByMe = false
	default:
		httputil.WriteBadRequest(w, "Unknown reaction key.")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Reaction recorded", nil, nil)
}

func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	var req model.CreateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httputil.WriteBadRequest(w, "Blog title is required.")
		return
	}

	id := s.SeedBlog(req.Title, userID)

	s.mu.Lock()
	s.blogs[id].Description = req.Description
	s.mu.Unlock()

	httputil.WriteSuccess(w, http.StatusCreated, "Blog created Successfully",
		map[string]string{"id": id}, nil)
}

func (s *Server) handleListUserBlogs(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())
	search := strings.ToLower(r.URL.Query().Get("search"))

	s.mu.Lock()
	var blogs []model.Blog
	for _, b := range s.blogs {
		if b.Owner.ID != userID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(b.Title), search) {
			continue
		}
		blogs = append(blogs, *b)
	}
	s.mu.Unlock()

	httputil.WriteSuccess(w, http.StatusOK, "Blogs fetched",
		model.BlogList{Blogs: blogs}, nil)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req model.CreateWriterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, requestRecord{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		Status: model.RequestPending,
	})
	s.mu.Unlock()

	httputil.WriteSuccess(w, http.StatusCreated, "Request created Successfully", nil, nil)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rows := make([]map[string]any, 0, len(s.requests))
	for _, req := range s.requests {
		row := map[string]any{"_id": req.ID, "status": req.Status}
		if u, ok := s.users[req.UserID]; ok {
			row["user_id"] = map[string]string{
				"first_name": u.Info.FirstName,
				"last_name":  u.Info.LastName,
			}
		}
		rows = append(rows, row)
	}
	s.mu.Unlock()

	httputil.WriteSuccess(w, http.StatusOK, "Requests fetched Successfully", rows, nil)
}

func (s *Server) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	s.decideRequest(w, r, model.RequestAccepted, "Request approved Successfully")
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	s.decideRequest(w, r, model.RequestRejected, "Request rejected Successfully")
}

func (s *Server) decideRequest(w http.ResponseWriter, r *http.Request, status, message string) {
	var req model.RequestAction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.requests {
		if s.requests[i].ID == req.RequestID {
			s.requests[i].Status = status
			httputil.WriteSuccess(w, http.StatusOK, message, nil, nil)
			return
		}
	}
	httputil.WriteNotFound(w, "Request not found.")
}

func findComment(forest []*model.Comment, id string) *model.Comment {
	for _, c := range forest {
		if c.ID == id {
			return c
		}
		if found := findComment(c.Replies, id); found != nil {
			return found
		}
	}
	return nil
}
