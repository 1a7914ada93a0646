package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"github.com/pkg/errors"
)

type MemoryStorage struct {
	users    map[int]*models.User
	posts    map[int]*models.Post
	comments map[int]*models.Comment
	likes    map[int]*models.Like
	lastID   map[string]int
	mu       sync.RWMutex
}

func New() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[int]*models.User),
		posts:    make(map[int]*models.Post),
		comments: make(map[int]*models.Comment),
		likes:    make(map[int]*models.Like),
		lastID:   make(map[string]int),
	}
}

func (s *MemoryStorage) Session(ctx context.Context) (storage.Session, error) {
	return &session{store: s}, nil
}

func (s *MemoryStorage) Migrate(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Seed(ctx context.Context, users []*models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range users {
		if s.findByAccessKey(u.AccessKey) != nil {
			continue
		}
		if err := s.insertUser(u); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

// nextID выдает id по аналогии с serial в PostgreSQL. Вызывается под s.mu.
func (s *MemoryStorage) nextID(table string) int {
	s.lastID[table]++
	return s.lastID[table]
}

func (s *MemoryStorage) findByAccessKey(accessKey string) *models.User {
	for _, u := range s.users {
		if u.AccessKey == accessKey {
			return u
		}
	}
	return nil
}

func (s *MemoryStorage) insertUser(user *models.User) error {
	for _, u := range s.users {
		if u.Username == user.Username {
			return errors.Errorf("username %q already exists", user.Username)
		}
		if u.AccessKey == user.AccessKey {
			return errors.New("access key already exists")
		}
	}
	user.ID = s.nextID("users")
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// deleteComment удаляет комментарий вместе с его лайками. Вызывается под s.mu.
func (s *MemoryStorage) deleteComment(id int) {
	for likeID, l := range s.likes {
		if l.CommentID != nil && *l.CommentID == id {
			delete(s.likes, likeID)
		}
	}
	delete(s.comments, id)
}

// sortedIDs возвращает ключи в порядке вставки
func sortedIDs[T any](m map[int]T) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// collect отбирает строки по условию с учетом лимита, возвращая копии
func collect[T any](m map[int]*T, match func(*T) bool, limit *int) []*T {
	result := make([]*T, 0)
	for _, id := range sortedIDs(m) {
		if limit != nil && len(result) >= *limit {
			break
		}
		row := m[id]
		if !match(row) {
			continue
		}
		c := *row
		result = append(result, &c)
	}
	return result
}

type session struct {
	store    *MemoryStorage
	released atomic.Bool
}

func (s *session) check() error {
	if s.released.Load() {
		return storage.ErrSessionReleased
	}
	return nil
}

func (s *session) Release() {
	s.released.Store(true)
}

func (s *session) GetUser(ctx context.Context, id int) (*models.User, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	u, ok := s.store.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	c := *u
	return &c, nil
}

func (s *session) GetUsers(ctx context.Context, ids []int) ([]*models.User, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	result := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.store.users[id]; ok {
			c := *u
			result = append(result, &c)
		}
	}
	return result, nil
}

func (s *session) GetUserByAccessKey(ctx context.Context, accessKey string) (*models.User, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	u := s.store.findByAccessKey(accessKey)
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	c := *u
	return &c, nil
}

func (s *session) ListUsers(ctx context.Context, afterID int, limit int) (*models.UserPage, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	// берем на одну запись больше, чтобы понять, есть ли следующая страница
	probe := limit + 1
	users := collect(s.store.users, func(u *models.User) bool { return u.ID > afterID }, &probe)

	page := &models.UserPage{TotalCount: len(s.store.users)}
	if len(users) > limit {
		page.HasNextPage = true
		users = users[:limit]
	}
	page.Users = users
	return page, nil
}

func (s *session) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.check(); err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return s.store.insertUser(user)
}

func (s *session) GetPost(ctx context.Context, id int) (*models.Post, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	p, ok := s.store.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	c := *p
	return &c, nil
}

func (s *session) GetPosts(ctx context.Context, ids []int) ([]*models.Post, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return collect(s.store.posts, func(p *models.Post) bool {
		_, ok := wanted[p.ID]
		return ok
	}, nil), nil
}

func (s *session) ListPostsByUser(ctx context.Context, userID int, limit *int) ([]*models.Post, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return collect(s.store.posts, func(p *models.Post) bool { return p.UserID == userID }, limit), nil
}

func (s *session) CreatePost(ctx context.Context, post *models.Post) error {
	if err := s.check(); err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.users[post.UserID]; !ok {
		return apperr.NotFound("user not found")
	}
	post.ID = s.store.nextID("posts")
	stored := *post
	s.store.posts[post.ID] = &stored
	return nil
}

func (s *session) DeletePost(ctx context.Context, id int) error {
	if err := s.check(); err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.posts[id]; !ok {
		return apperr.NotFound("post not found")
	}
	for commentID, c := range s.store.comments {
		if c.PostID == id {
			s.store.deleteComment(commentID)
		}
	}
	for likeID, l := range s.store.likes {
		if l.PostID != nil && *l.PostID == id {
			delete(s.store.likes, likeID)
		}
	}
	delete(s.store.posts, id)
	return nil
}

func (s *session) GetComment(ctx context.Context, id int) (*models.Comment, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	c, ok := s.store.comments[id]
	if !ok {
		return nil, apperr.NotFound("comment not found")
	}
	cp := *c
	return &cp, nil
}

func (s *session) ListCommentsByUser(ctx context.Context, userID int, limit *int) ([]*models.Comment, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return collect(s.store.comments, func(c *models.Comment) bool { return c.UserID == userID }, limit), nil
}

func (s *session) ListCommentsByPost(ctx context.Context, postID int, limit *int) ([]*models.Comment, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return collect(s.store.comments, func(c *models.Comment) bool { return c.PostID == postID }, limit), nil
}

func (s *session) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := s.check(); err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.users[comment.UserID]; !ok {
		return apperr.NotFound("user not found")
	}
	if _, ok := s.store.posts[comment.PostID]; !ok {
		return apperr.NotFound("post not found")
	}
	comment.ID = s.store.nextID("comments")
	stored := *comment
	s.store.comments[comment.ID] = &stored
	return nil
}

func (s *session) DeleteComment(ctx context.Context, id int) error {
	if err := s.check(); err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.comments[id]; !ok {
		return apperr.NotFound("comment not found")
	}
	s.store.deleteComment(id)
	return nil
}

func (s *session) ListLikesByUser(ctx context.Context, userID int, limit *int) ([]*models.Like, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return cloneLikes(collect(s.store.likes, func(l *models.Like) bool { return l.UserID == userID }, limit)), nil
}

func (s *session) ListLikesByPost(ctx context.Context, postID int, limit *int) ([]*models.Like, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return cloneLikes(collect(s.store.likes, func(l *models.Like) bool {
		return l.PostID != nil && *l.PostID == postID
	}, limit)), nil
}

func (s *session) ListLikesByComment(ctx context.Context, commentID int, limit *int) ([]*models.Like, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return cloneLikes(collect(s.store.likes, func(l *models.Like) bool {
		return l.CommentID != nil && *l.CommentID == commentID
	}, limit)), nil
}

func (s *session) CreateLike(ctx context.Context, like *models.Like) error {
	if err := s.check(); err != nil {
		return err
	}
	if !like.HasSingleTarget() {
		return apperr.InvalidArgument("like must reference exactly one of post or comment")
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.users[like.UserID]; !ok {
		return apperr.NotFound("user not found")
	}
	if like.PostID != nil {
		if _, ok := s.store.posts[*like.PostID]; !ok {
			return apperr.NotFound("post not found")
		}
	}
	if like.CommentID != nil {
		if _, ok := s.store.comments[*like.CommentID]; !ok {
			return apperr.NotFound("comment not found")
		}
	}
	like.ID = s.store.nextID("likes")
	s.store.likes[like.ID] = cloneLike(like)
	return nil
}

// cloneLike копирует лайк вместе с PostID и CommentID, чтобы вызывающий
// не держал указатели на хранимую строку
func cloneLike(like *models.Like) *models.Like {
	c := *like
	if like.PostID != nil {
		id := *like.PostID
		c.PostID = &id
	}
	if like.CommentID != nil {
		id := *like.CommentID
		c.CommentID = &id
	}
	return &c
}

func cloneLikes(likes []*models.Like) []*models.Like {
	for i, like := range likes {
		likes[i] = cloneLike(like)
	}
	return likes
}
