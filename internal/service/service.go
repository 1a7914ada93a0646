// Package service содержит операции API без привязки к транспорту: корневые
// запросы, резолверы связанных полей и мутации. Каждая операция получает
// единицу работы и предъявленный токен явно, через Request.
package service

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/ButyrinIA/socialgraph/internal/access"
	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxTitleLength  = 200
	cursorPrefix    = "user:"
)

// UserLoader загружает пользователя по id; реализация может группировать запросы
type UserLoader interface {
	Load(ctx context.Context, id int) (*models.User, error)
}

// CommentPublisher получает созданные комментарии после коммита
type CommentPublisher interface {
	PublishComment(comment *models.Comment)
}

// Request - все, что операции нужно знать о текущем запросе
type Request struct {
	Session storage.Session
	Token   string
	// Users необязателен; без него пользователи читаются из Session напрямую
	Users UserLoader
}

func (r Request) user(ctx context.Context, id int) (*models.User, error) {
	if r.Users != nil {
		return r.Users.Load(ctx, id)
	}
	return r.Session.GetUser(ctx, id)
}

type Service struct {
	policy    *access.Policy
	publisher CommentPublisher
	pageSize  int
	log       *zap.Logger
}

type Option func(*Service)

func WithPublisher(p CommentPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= maxPageSize {
			s.pageSize = n
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func New(policy *access.Policy, opts ...Option) *Service {
	s := &Service{
		policy:   policy,
		pageSize: defaultPageSize,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EncodeCursor кодирует id пользователя в непрозрачный курсор
func EncodeCursor(id int) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(id)))
}

func DecodeCursor(cursor string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, apperr.InvalidArgument("invalid cursor")
	}
	value, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, apperr.InvalidArgument("invalid cursor")
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 0 {
		return 0, apperr.InvalidArgument("invalid cursor")
	}
	return id, nil
}

func validateLimit(limit *int) error {
	if limit != nil && *limit < 0 {
		return apperr.InvalidArgument("limit must not be negative")
	}
	return nil
}
