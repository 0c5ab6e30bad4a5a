// Command client is the headless Writely client. Each invocation performs
// one action against the backend; the session persists on disk between
// runs, so logging in once is enough.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"writely_client/internal/api"
	"writely_client/internal/authgate"
	"writely_client/internal/comments"
	"writely_client/internal/config"
	"writely_client/internal/model"
	"writely_client/internal/notify"
	"writely_client/internal/requests"
	"writely_client/internal/session"
	"writely_client/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("client failed: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	st, err := store.Open(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer st.Close()

	sess, err := session.NewStore(ctx, st)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	client := api.NewClient(cfg, sess, notify.LogNotifier{}, func(target string, replace bool) {
		log.Printf("[Nav] -> %s (replace=%v)", target, replace)
	})

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return cmdLogin(ctx, client, rest)
	case "register":
		return cmdRegister(ctx, client, rest)
	case "logout":
		return client.Logout(ctx)
	case "profile":
		return cmdProfile(ctx, client, sess)
	case "route":
		return cmdRoute(sess, rest)
	case "blog":
		return cmdBlog(ctx, client, rest)
	case "my-blogs":
		return cmdMyBlogs(ctx, client, rest)
	case "create-blog":
		return cmdCreateBlog(ctx, client, sess, rest)
	case "comments":
		return cmdComments(ctx, client, sess, cfg, rest)
	case "comment":
		return cmdComment(ctx, client, sess, rest)
	case "like":
		return cmdLike(ctx, client, sess, rest)
	case "request-writer":
		return client.CreateWriterRequest(ctx)
	case "requests":
		return cmdRequests(ctx, client)
	case "approve":
		return cmdDecide(ctx, client, rest, true)
	case "reject":
		return cmdDecide(ctx, client, rest, false)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: client <command> [args]

  login <email> <password>
  register <first> <last> <email> <password>
  logout
  profile
  route <path>
  blog <id>
  my-blogs [search]
  create-blog <title> <description>
  comments <blog-id> [pages]
  comment <blog-id> <message> [parent-id]
  like <blog-id> <comment-id>
  request-writer
  requests
  approve <request-id>
  reject <request-id>`)
}

func cmdLogin(ctx context.Context, client *api.Client, args []string) error {
	if len(args) != 2 {
		return errors.New("login needs <email> <password>")
	}
	return client.Login(ctx, args[0], args[1])
}

func cmdRegister(ctx context.Context, client *api.Client, args []string) error {
	if len(args) != 4 {
		return errors.New("register needs <first> <last> <email> <password>")
	}
	return client.Register(ctx, model.RegisterRequest{
		FirstName: args[0],
		LastName:  args[1],
		Email:     args[2],
		Password:  args[3],
	})
}

func cmdProfile(ctx context.Context, client *api.Client, sess *session.Store) error {
	if !sess.Current().IsLoggedIn {
		return model.ErrNotAuthenticated
	}
	profile, err := client.GetProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> role=%s\n", profile.UserInfo.FullName(), profile.UserInfo.Email, profile.UserInfo.Role.Username)
	for _, p := range profile.Permissions {
		if !p.IsDeleted {
			fmt.Printf("  permission: %s\n", p.Username)
		}
	}
	return nil
}

// cmdRoute prints the gate decision for a path, the same one a UI host
// would act on before rendering it.
func cmdRoute(sess *session.Store, args []string) error {
	if len(args) != 1 {
		return errors.New("route needs <path>")
	}
	dec := authgate.Evaluate(sess.Current(), args[0])
	if dec.Action == authgate.Allow {
		fmt.Printf("%s: allow\n", args[0])
	} else {
		fmt.Printf("%s: redirect -> %s (replace=%v)\n", args[0], dec.Target, dec.Replace)
	}
	return nil
}

func cmdBlog(ctx context.Context, client *api.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("blog needs <id>")
	}
	blog, err := client.GetBlog(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s by %s (%d likes, %d comments)\n", blog.Title, blog.Owner.FullName, blog.Likes, blog.Comments)
	if blog.Description != "" {
		fmt.Println(blog.Description)
	}
	return nil
}

func cmdMyBlogs(ctx context.Context, client *api.Client, args []string) error {
	search := ""
	if len(args) > 0 {
		search = args[0]
	}
	blogs, err := client.ListUserBlogs(ctx, 20, 0, search)
	if err != nil {
		return err
	}
	for _, b := range blogs {
		fmt.Printf("%s  %s\n", b.ID, b.Title)
	}
	return nil
}

func cmdCreateBlog(ctx context.Context, client *api.Client, sess *session.Store, args []string) error {
	if len(args) != 2 {
		return errors.New("create-blog needs <title> <description>")
	}
	if !sess.Current().HasPermission(model.PermCreateBlog) {
		return fmt.Errorf("create blog: %w", model.ErrNotAuthenticated)
	}
	return client.CreateBlog(ctx, model.CreateBlogRequest{Title: args[0], Description: args[1]})
}

// cmdComments loads a thread through the engine, page by page, and prints
// the forest with indentation.
func cmdComments(ctx context.Context, client *api.Client, sess *session.Store, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("comments needs <blog-id> [pages]")
	}
	pages := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page count %q", args[1])
		}
		pages = n
	}

	engine := newEngine(client, sess)
	engine.SetBlog(args[0])
	if err := engine.LoadPage(ctx, 0); err != nil {
		return err
	}
	for i := 1; i < pages; i++ {
		if err := engine.TriggerLoadMore(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("%d root comments total\n", engine.Total())
	for _, root := range engine.Roots() {
		printComment(root, 0)
	}
	return nil
}

func printComment(c *model.Comment, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Print("  ")
	}
	liked := ""
	if c.LikedByMe {
		liked = " *"
	}
	fmt.Printf("[%s] %s: %s (%d likes%s)\n", c.ID, c.Author.FullName, c.Message, c.Likes, liked)
	for _, reply := range c.Replies {
		printComment(reply, depth+1)
	}
}

func cmdComment(ctx context.Context, client *api.Client, sess *session.Store, args []string) error {
	if len(args) < 2 {
		return errors.New("comment needs <blog-id> <message> [parent-id]")
	}
	var parentID *string
	if len(args) > 2 {
		parentID = &args[2]
	}

	engine := newEngine(client, sess)
	engine.SetBlog(args[0])
	if parentID != nil {
		// Replies need the parent present in the forest.
		if err := engine.LoadPage(ctx, 0); err != nil {
			return err
		}
		for engine.Find(*parentID) == nil {
			before := len(engine.Roots())
			if err := engine.TriggerLoadMore(ctx); err != nil {
				return err
			}
			if len(engine.Roots()) == before {
				return model.ErrCommentNotFound
			}
		}
	}
	return engine.PostComment(ctx, args[1], parentID)
}

func cmdLike(ctx context.Context, client *api.Client, sess *session.Store, args []string) error {
	if len(args) != 2 {
		return errors.New("like needs <blog-id> <comment-id>")
	}

	engine := newEngine(client, sess)
	engine.SetBlog(args[0])
	if err := engine.LoadPage(ctx, 0); err != nil {
		return err
	}
	for engine.Find(args[1]) == nil {
		before := len(engine.Roots())
		if err := engine.TriggerLoadMore(ctx); err != nil {
			return err
		}
		if len(engine.Roots()) == before {
			return model.ErrCommentNotFound
		}
	}
	return engine.ToggleLike(ctx, args[1])
}

func cmdRequests(ctx context.Context, client *api.Client) error {
	console := requests.NewStore()
	list, err := client.ListRequests(ctx)
	if err != nil {
		return err
	}
	console.SetAll(list)

	for _, r := range console.All() {
		fmt.Printf("%s  %-10s %s\n", r.ID, r.Status, r.Name)
	}
	fmt.Printf("%d awaiting a decision\n", len(console.Pending()))
	return nil
}

// cmdDecide runs the admin console flow for one request: fetch the list,
// apply the decision on the backend, then mirror it locally.
func cmdDecide(ctx context.Context, client *api.Client, args []string, approve bool) error {
	if len(args) != 1 {
		return errors.New("needs <request-id>")
	}
	id := args[0]

	console := requests.NewStore()
	list, err := client.ListRequests(ctx)
	if err != nil {
		return err
	}
	console.SetAll(list)

	if approve {
		if err := client.ApproveRequest(ctx, id); err != nil {
			return err
		}
		if err := console.Approve(id); err != nil {
			return err
		}
	} else {
		if err := client.RejectRequest(ctx, id); err != nil {
			return err
		}
		if err := console.Reject(id); err != nil {
			return err
		}
	}

	fmt.Printf("%d still pending\n", len(console.Pending()))
	return nil
}

func newEngine(client *api.Client, sess *session.Store) *comments.Engine {
	return comments.NewEngine(client, notify.LogNotifier{}, func() model.CommentAuthor {
		info := sess.Current().UserInfo
		return model.CommentAuthor{
			ID:        info.ID,
			FirstName: info.FirstName,
			LastName:  info.LastName,
			FullName:  info.FullName(),
		}
	})
}
