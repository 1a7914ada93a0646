package postgres

import (
	"context"
	"sync/atomic"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marshallshelly/pebble-orm/pkg/builder"
	"github.com/marshallshelly/pebble-orm/pkg/registry"
	"github.com/marshallshelly/pebble-orm/pkg/runtime"
	"github.com/pkg/errors"
)

// коды ошибок PostgreSQL
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
	checkViolation      = "23514"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		access_key VARCHAR(128) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id SERIAL PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		content TEXT NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id SERIAL PRIMARY KEY,
		content TEXT NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users(id),
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		post_id INTEGER REFERENCES posts(id) ON DELETE CASCADE,
		comment_id INTEGER REFERENCES comments(id) ON DELETE CASCADE,
		CONSTRAINT likes_single_target CHECK ((post_id IS NULL) <> (comment_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_user_id ON comments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_comment_id ON likes(comment_id)`,
}

type PostgresStorage struct {
	db *runtime.DB
	qb *builder.DB
}

func New(ctx context.Context, dsn string, maxConns int32) (*PostgresStorage, error) {
	for _, model := range []interface{}{models.User{}, models.Post{}, models.Comment{}, models.Like{}} {
		if err := registry.Register(model); err != nil {
			return nil, errors.Wrap(err, "failed to register model")
		}
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse postgres dsn")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}

	db := runtime.NewDB(pool)
	return &PostgresStorage{db: db, qb: builder.New(db)}, nil
}

func (s *PostgresStorage) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to create tables")
		}
	}
	return nil
}

func (s *PostgresStorage) Seed(ctx context.Context, users []*models.User) error {
	for _, u := range users {
		_, err := builder.Insert[models.User](s.qb).
			Values(*u).
			OnConflictDoNothing(builder.Col[models.User]("AccessKey")).
			Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to seed user %s", u.Username)
		}
	}
	return nil
}

func (s *PostgresStorage) Session(ctx context.Context) (storage.Session, error) {
	return &session{store: s}, nil
}

func (s *PostgresStorage) Close() error {
	s.db.Close()
	return nil
}

// inTx выполняет одну запись в отдельной транзакции
func (s *PostgresStorage) inTx(ctx context.Context, fn func(tx *builder.Tx) error) error {
	tx, err := s.qb.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// translate переводит ошибки драйвера в виды ошибок API
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolation:
			return apperr.NotFound("%s", notFound)
		case checkViolation:
			return apperr.InvalidArgument("like must reference exactly one of post or comment")
		case uniqueViolation:
			return errors.Wrap(err, "duplicate value")
		}
	}
	return err
}

type session struct {
	store    *PostgresStorage
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

func toPtrs[T any](rows []T) []*T {
	result := make([]*T, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return result
}

func toArgs(ids []int) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// first выбирает одну строку по id
func first[T any](ctx context.Context, qb *builder.DB, id int, notFound string) (*T, error) {
	rows, err := builder.Select[T](qb).
		Where(builder.Eq("id", id)).
		Limit(1).
		All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "select failed")
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("%s", notFound)
	}
	return &rows[0], nil
}

// listBy выбирает строки по внешнему ключу с необязательным лимитом
func listBy[T any](ctx context.Context, qb *builder.DB, column string, value int, limit *int) ([]*T, error) {
	q := builder.Select[T](qb).Where(builder.Eq(column, value))
	if limit != nil {
		if *limit == 0 {
			return []*T{}, nil
		}
		q = q.Limit(*limit)
	}
	rows, err := q.All(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "select by %s failed", column)
	}
	return toPtrs(rows), nil
}

func (s *session) GetUser(ctx context.Context, id int) (*models.User, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return first[models.User](ctx, s.store.qb, id, "user not found")
}

func (s *session) GetUsers(ctx context.Context, ids []int) ([]*models.User, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	rows, err := builder.Select[models.User](s.store.qb).
		Where(builder.In(builder.Col[models.User]("ID"), toArgs(ids)...)).
		All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get users")
	}
	return toPtrs(rows), nil
}

func (s *session) GetUserByAccessKey(ctx context.Context, accessKey string) (*models.User, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := builder.Select[models.User](s.store.qb).
		Where(builder.Eq(builder.Col[models.User]("AccessKey"), accessKey)).
		Limit(1).
		All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by access key")
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("user not found")
	}
	return &rows[0], nil
}

func (s *session) ListUsers(ctx context.Context, afterID int, limit int) (*models.UserPage, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	total, err := builder.Select[models.User](s.store.qb).Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count users")
	}

	rows, err := builder.Select[models.User](s.store.qb).
		Where(builder.Gt(builder.Col[models.User]("ID"), afterID)).
		OrderByAsc(builder.Col[models.User]("ID")).
		Limit(limit + 1).
		All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	page := &models.UserPage{TotalCount: int(total)}
	if len(rows) > limit {
		page.HasNextPage = true
		rows = rows[:limit]
	}
	page.Users = toPtrs(rows)
	return page, nil
}

func (s *session) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.store.inTx(ctx, func(tx *builder.Tx) error {
		rows, err := builder.TxInsert[models.User](tx).Values(*user).Returning("*").ExecReturning()
		if err != nil {
			return translate(err, "user not found")
		}
		user.ID = rows[0].ID
		return nil
	})
}

func (s *session) GetPost(ctx context.Context, id int) (*models.Post, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return first[models.Post](ctx, s.store.qb, id, "post not found")
}

func (s *session) GetPosts(ctx context.Context, ids []int) ([]*models.Post, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Post{}, nil
	}
	rows, err := builder.Select[models.Post](s.store.qb).
		Where(builder.In(builder.Col[models.Post]("ID"), toArgs(ids)...)).
		All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get posts")
	}
	return toPtrs(rows), nil
}

func (s *session) ListPostsByUser(ctx context.Context, userID int, limit *int) ([]*models.Post, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return listBy[models.Post](ctx, s.store.qb, builder.Col[models.Post]("UserID"), userID, limit)
}

func (s *session) CreatePost(ctx context.Context, post *models.Post) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.store.inTx(ctx, func(tx *builder.Tx) error {
		rows, err := builder.TxInsert[models.Post](tx).Values(*post).Returning("*").ExecReturning()
		if err != nil {
			return translate(err, "user not found")
		}
		post.ID = rows[0].ID
		return nil
	})
}

func (s *session) DeletePost(ctx context.Context, id int) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.store.inTx(ctx, func(tx *builder.Tx) error {
		n, err := builder.TxDelete[models.Post](tx).
			Where(builder.Eq(builder.Col[models.Post]("ID"), id)).
			Exec()
		if err != nil {
			return errors.Wrap(err, "failed to delete post")
		}
		if n == 0 {
			return apperr.NotFound("post not found")
		}
		return nil
	})
}

func (s *session) GetComment(ctx context.Context, id int) (*models.Comment, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return first[models.Comment](ctx, s.store.qb, id, "comment not found")
}

func (s *session) ListCommentsByUser(ctx context.Context, userID int, limit *int) ([]*models.Comment, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return listBy[models.Comment](ctx, s.store.qb, builder.Col[models.Comment]("UserID"), userID, limit)
}

func (s *session) ListCommentsByPost(ctx context.Context, postID int, limit *int) ([]*models.Comment, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return listBy[models.Comment](ctx, s.store.qb, builder.Col[models.Comment]("PostID"), postID, limit)
}

func (s *session) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.store.inTx(ctx, func(tx *builder.Tx) error {
		rows, err := builder.TxInsert[models.Comment](tx).Values(*comment).Returning("*").ExecReturning()
		if err != nil {
			return translate(err, "post not found")
		}
		comment.ID = rows[0].ID
		return nil
	})
}

func (s *session) DeleteComment(ctx context.Context, id int) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.store.inTx(ctx, func(tx *builder.Tx) error {
		n, err := builder.TxDelete[models.Comment](tx).
			Where(builder.Eq(builder.Col[models.Comment]("ID"), id)).
			Exec()
		if err != nil {
			return errors.Wrap(err, "failed to delete comment")
		}
		if n == 0 {
			return apperr.NotFound("comment not found")
		}
		return nil
	})
}

func (s *session) ListLikesByUser(ctx context.Context, userID int, limit *int) ([]*models.Like, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return listBy[models.Like](ctx, s.store.qb, builder.Col[models.Like]("UserID"), userID, limit)
}

func (s *session) ListLikesByPost(ctx context.Context, postID int, limit *int) ([]*models.Like, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return listBy[models.Like](ctx, s.store.qb, builder.Col[models.Like]("PostID"), postID, limit)
}

func (s *session) ListLikesByComment(ctx context.Context, commentID int, limit *int) ([]*models.Like, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return listBy[models.Like](ctx, s.store.qb, builder.Col[models.Like]("CommentID"), commentID, limit)
}

func (s *session) CreateLike(ctx context.Context, like *models.Like) error {
	if err := s.check(); err != nil {
		return err
	}
	if !like.HasSingleTarget() {
		return apperr.InvalidArgument("like must reference exactly one of post or comment")
	}
	notFound := "post not found"
	if like.CommentID != nil {
		notFound = "comment not found"
	}
	return s.store.inTx(ctx, func(tx *builder.Tx) error {
		rows, err := builder.TxInsert[models.Like](tx).Values(*like).Returning("*").ExecReturning()
		if err != nil {
			return translate(err, notFound)
		}
		like.ID = rows[0].ID
		return nil
	})
}
