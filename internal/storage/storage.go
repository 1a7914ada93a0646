package storage

import (
	"context"

	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/pkg/errors"
)

// ErrSessionReleased возвращается при обращении к уже освобожденной сессии
var ErrSessionReleased = errors.New("storage session already released")

// Storage открывает сессии (единицы работы) на время одного запроса
type Storage interface {
	Session(ctx context.Context) (Session, error)
	Migrate(ctx context.Context) error
	// Seed создает пользователей, если их еще нет
	Seed(ctx context.Context, users []*models.User) error
	Close() error
}

// Session - единица работы одного запроса. Чтение - по точному совпадению
// внешнего ключа с необязательным лимитом, запись - одна строка и коммит.
// limit == nil означает отсутствие ограничения.
type Session interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUsers(ctx context.Context, ids []int) ([]*models.User, error)
	GetUserByAccessKey(ctx context.Context, accessKey string) (*models.User, error)
	ListUsers(ctx context.Context, afterID int, limit int) (*models.UserPage, error)
	CreateUser(ctx context.Context, user *models.User) error

	GetPost(ctx context.Context, id int) (*models.Post, error)
	GetPosts(ctx context.Context, ids []int) ([]*models.Post, error)
	ListPostsByUser(ctx context.Context, userID int, limit *int) ([]*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id int) error

	GetComment(ctx context.Context, id int) (*models.Comment, error)
	ListCommentsByUser(ctx context.Context, userID int, limit *int) ([]*models.Comment, error)
	ListCommentsByPost(ctx context.Context, postID int, limit *int) ([]*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id int) error

	ListLikesByUser(ctx context.Context, userID int, limit *int) ([]*models.Like, error)
	ListLikesByPost(ctx context.Context, postID int, limit *int) ([]*models.Like, error)
	ListLikesByComment(ctx context.Context, commentID int, limit *int) ([]*models.Like, error)
	CreateLike(ctx context.Context, like *models.Like) error

	// Release завершает единицу работы; повторный вызов безопасен
	Release()
}
