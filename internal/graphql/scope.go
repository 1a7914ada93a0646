package graphql

import (
	"context"

	"github.com/ButyrinIA/socialgraph/internal/service"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"go.uber.org/zap"
)

type scopeKey struct{}

// Scope - состояние одного запроса: сессия хранилища, токен и загрузчик пользователей
type Scope struct {
	Request service.Request
	Log     *zap.Logger
}

// NewScope собирает Scope для сессии и предъявленного токена. Загрузчик
// пользователей живет столько же, сколько сессия.
func NewScope(sess storage.Session, token string, log *zap.Logger) *Scope {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scope{
		Request: service.Request{
			Session: sess,
			Token:   token,
			Users:   NewUserLoader(sess),
		},
		Log: log,
	}
}

func WithScope(ctx context.Context, sc *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

func ScopeFrom(ctx context.Context) (*Scope, bool) {
	sc, ok := ctx.Value(scopeKey{}).(*Scope)
	return sc, ok
}
