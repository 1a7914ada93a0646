package graphql

import (
	"context"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/ButyrinIA/socialgraph/internal/service"
	"go.uber.org/zap"
)

// Resolver - корневой резолвер для Query, Mutation и Subscription
type Resolver struct {
	svc      *service.Service
	broker   *Broker
	log      *zap.Logger
	recorder ErrorRecorder
}

func NewResolver(svc *service.Service, broker *Broker, log *zap.Logger, recorder ErrorRecorder) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Resolver{svc: svc, broker: broker, log: log, recorder: recorder}
}

func (r *Resolver) scope(ctx context.Context) (*Scope, error) {
	sc, ok := ScopeFrom(ctx)
	if !ok {
		r.log.Error("request scope missing in context")
		return nil, apperr.Internal()
	}
	return sc, nil
}

func toIntPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func toInt32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	i := int32(*v)
	return &i
}

type limitArgs struct {
	Limit *int32
}

// User реализует запрос user(id)
func (r *Resolver) User(ctx context.Context, args struct{ ID int32 }) (*userResolver, error) {
	sc, err := r.scope(ctx)
	if err != nil {
		return nil, err
	}
	user, err := r.svc.User(ctx, sc.Request, int(args.ID))
	if err != nil {
		return nil, r.fail(ctx, "user", err)
	}
	return &userResolver{root: r, user: user}, nil
}

// Posts реализует запрос posts(ids)
func (r *Resolver) Posts(ctx context.Context, args struct{ IDs []int32 }) ([]*postResolver, error) {
	sc, err := r.scope(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(args.IDs))
	for i, id := range args.IDs {
		ids[i] = int(id)
	}
	posts, err := r.svc.Posts(ctx, sc.Request, ids)
	if err != nil {
		return nil, r.fail(ctx, "posts", err)
	}
	return r.postList(posts), nil
}

// AllUsers реализует запрос allUsers(first, after)
func (r *Resolver) AllUsers(ctx context.Context, args struct {
	First *int32
	After *string
}) (*userConnectionResolver, error) {
	sc, err := r.scope(ctx)
	if err != nil {
		return nil, err
	}
	page, err := r.svc.AllUsers(ctx, sc.Request, toIntPtr(args.First), args.After)
	if err != nil {
		return nil, r.fail(ctx, "allUsers", err)
	}
	return &userConnectionResolver{root: r, page: page}, nil
}

// CreatePost реализует мутацию createPost
func (r *Resolver) CreatePost(ctx context.Context, args struct {
	Title   string
	Content string
}) (*postResolver, error) {
	sc, err := r.scope(ctx)
	if err != nil {
		return nil, err
	}
	post, err := r.svc.CreatePost(ctx, sc.Request, args.Title, args.Content)
	if err != nil {
		return nil, r.fail(ctx, "createPost", err)
	}
	return &postResolver{root: r, post: post}, nil
}

// CreateComment реализует мутацию createComment
func (r *Resolver) CreateComment(ctx context.Context, args struct {
	PostID  int32
	Content string
}) (*commentResolver, error) {
	sc, err := r.scope(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := r.svc.CreateComment(ctx, sc.Request, int(args.PostID), args.Content)
	if err != nil {
		return nil, r.fail(ctx, "createComment", err)
	}
	return &commentResolver{root: r, comment: comment}, nil
}

// CreateLike реализует мутацию createLike
func (r *Resolver) CreateLike(ctx context.Context, args struct {
	PostID    *int32
	CommentID *int32
}) (*likeResolver, error) {
	sc, err := r.scope(ctx)
	if err != nil {
		return nil, err
	}
	like, err := r.svc.CreateLike(ctx, sc.Request, toIntPtr(args.PostID), toIntPtr(args.CommentID))
	if err != nil {
		return nil, r.fail(ctx, "createLike", err)
	}
	return &likeResolver{root: r, like: like}, nil
}

// DeletePost реализует мутацию deletePost
func (r *Resolver) DeletePost(ctx context.Context, args struct{ PostID int32 }) (bool, error) {
	sc, err := r.scope(ctx)
	if err != nil {
		return false, err
	}
	ok, err := r.svc.DeletePost(ctx, sc.Request, int(args.PostID))
	if err != nil {
		return false, r.fail(ctx, "deletePost", err)
	}
	return ok, nil
}

// DeleteComment реализует мутацию deleteComment
func (r *Resolver) DeleteComment(ctx context.Context, args struct{ CommentID int32 }) (bool, error) {
	sc, err := r.scope(ctx)
	if err != nil {
		return false, err
	}
	ok, err := r.svc.DeleteComment(ctx, sc.Request, int(args.CommentID))
	if err != nil {
		return false, r.fail(ctx, "deleteComment", err)
	}
	return ok, nil
}

// CommentAdded реализует подписку commentAdded
func (r *Resolver) CommentAdded(ctx context.Context, args struct{ PostID int32 }) (<-chan *commentResolver, error) {
	if r.broker == nil {
		return nil, r.fail(ctx, "commentAdded", apperr.InvalidArgument("subscriptions are disabled"))
	}
	comments := r.broker.Subscribe(ctx, int(args.PostID))
	out := make(chan *commentResolver)
	go func() {
		defer close(out)
		for c := range comments {
			select {
			case out <- &commentResolver{root: r, comment: c}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (r *Resolver) postList(posts []*models.Post) []*postResolver {
	result := make([]*postResolver, len(posts))
	for i, p := range posts {
		result[i] = &postResolver{root: r, post: p}
	}
	return result
}

func (r *Resolver) commentList(comments []*models.Comment) []*commentResolver {
	result := make([]*commentResolver, len(comments))
	for i, c := range comments {
		result[i] = &commentResolver{root: r, comment: c}
	}
	return result
}

func (r *Resolver) likeList(likes []*models.Like) []*likeResolver {
	result := make([]*likeResolver, len(likes))
	for i, l := range likes {
		result[i] = &likeResolver{root: r, like: l}
	}
	return result
}

type userResolver struct {
	root *Resolver
	user *models.User
}

func (u *userResolver) ID() int32 {
	return int32(u.user.ID)
}

func (u *userResolver) Username() string {
	return u.user.Username
}

func (u *userResolver) Posts(ctx context.Context, args limitArgs) ([]*postResolver, error) {
	sc, err := u.root.scope(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := u.root.svc.UserPosts(ctx, sc.Request, u.user, toIntPtr(args.Limit))
	if err != nil {
		return nil, u.root.fail(ctx, service.FieldUserPosts, err)
	}
	return u.root.postList(posts), nil
}

func (u *userResolver) Comments(ctx context.Context, args limitArgs) ([]*commentResolver, error) {
	sc, err := u.root.scope(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := u.root.svc.UserComments(ctx, sc.Request, u.user, toIntPtr(args.Limit))
	if err != nil {
		return nil, u.root.fail(ctx, service.FieldUserComments, err)
	}
	return u.root.commentList(comments), nil
}

func (u *userResolver) Likes(ctx context.Context, args limitArgs) ([]*likeResolver, error) {
	sc, err := u.root.scope(ctx)
	if err != nil {
		return nil, err
	}
	likes, err := u.root.svc.UserLikes(ctx, sc.Request, u.user, toIntPtr(args.Limit))
	if err != nil {
		return nil, u.root.fail(ctx, service.FieldUserLikes, err)
	}
	return u.root.likeList(likes), nil
}

type postResolver struct {
	root *Resolver
	post *models.Post
}

func (p *postResolver) ID() int32 {
	return int32(p.post.ID)
}

func (p *postResolver) Title() string {
	return p.post.Title
}

func (p *postResolver) Content() string {
	return p.post.Content
}

func (p *postResolver) UserID() int32 {
	return int32(p.post.UserID)
}

func (p *postResolver) Comments(ctx context.Context, args limitArgs) ([]*commentResolver, error) {
	sc, err := p.root.scope(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := p.root.svc.PostComments(ctx, sc.Request, p.post, toIntPtr(args.Limit))
	if err != nil {
		return nil, p.root.fail(ctx, service.FieldPostComments, err)
	}
	return p.root.commentList(comments), nil
}

func (p *postResolver) Likes(ctx context.Context, args limitArgs) ([]*likeResolver, error) {
	sc, err := p.root.scope(ctx)
	if err != nil {
		return nil, err
	}
	likes, err := p.root.svc.PostLikes(ctx, sc.Request, p.post, toIntPtr(args.Limit))
	if err != nil {
		return nil, p.root.fail(ctx, service.FieldPostLikes, err)
	}
	return p.root.likeList(likes), nil
}

type commentResolver struct {
	root    *Resolver
	comment *models.Comment
}

func (c *commentResolver) ID() int32 {
	return int32(c.comment.ID)
}

func (c *commentResolver) Content() string {
	return c.comment.Content
}

func (c *commentResolver) UserID() int32 {
	return int32(c.comment.UserID)
}

func (c *commentResolver) PostID() int32 {
	return int32(c.comment.PostID)
}

func (c *commentResolver) Likes(ctx context.Context, args limitArgs) ([]*likeResolver, error) {
	sc, err := c.root.scope(ctx)
	if err != nil {
		return nil, err
	}
	likes, err := c.root.svc.CommentLikes(ctx, sc.Request, c.comment, toIntPtr(args.Limit))
	if err != nil {
		return nil, c.root.fail(ctx, service.FieldCommentLikes, err)
	}
	return c.root.likeList(likes), nil
}

type likeResolver struct {
	root *Resolver
	like *models.Like
}

func (l *likeResolver) ID() int32 {
	return int32(l.like.ID)
}

func (l *likeResolver) UserID() int32 {
	return int32(l.like.UserID)
}

func (l *likeResolver) PostID() *int32 {
	return toInt32Ptr(l.like.PostID)
}

func (l *likeResolver) CommentID() *int32 {
	return toInt32Ptr(l.like.CommentID)
}

func (l *likeResolver) User(ctx context.Context) (*userResolver, error) {
	sc, err := l.root.scope(ctx)
	if err != nil {
		return nil, err
	}
	user, err := l.root.svc.LikeUser(ctx, sc.Request, l.like)
	if err != nil {
		return nil, l.root.fail(ctx, service.FieldLikeUser, err)
	}
	return &userResolver{root: l.root, user: user}, nil
}

type userConnectionResolver struct {
	root *Resolver
	page *models.UserPage
}

func (c *userConnectionResolver) Edges() []*userEdgeResolver {
	edges := make([]*userEdgeResolver, len(c.page.Users))
	for i, u := range c.page.Users {
		edges[i] = &userEdgeResolver{node: &userResolver{root: c.root, user: u}}
	}
	return edges
}

func (c *userConnectionResolver) PageInfo() *pageInfoResolver {
	info := &pageInfoResolver{hasNextPage: c.page.HasNextPage}
	if n := len(c.page.Users); n > 0 {
		cursor := service.EncodeCursor(c.page.Users[n-1].ID)
		info.endCursor = &cursor
	}
	return info
}

func (c *userConnectionResolver) TotalCount() int32 {
	return int32(c.page.TotalCount)
}

type userEdgeResolver struct {
	node *userResolver
}

func (e *userEdgeResolver) Cursor() string {
	return service.EncodeCursor(e.node.user.ID)
}

func (e *userEdgeResolver) Node() *userResolver {
	return e.node
}

type pageInfoResolver struct {
	hasNextPage bool
	endCursor   *string
}

func (p *pageInfoResolver) HasNextPage() bool {
	return p.hasNextPage
}

func (p *pageInfoResolver) EndCursor() *string {
	return p.endCursor
}
