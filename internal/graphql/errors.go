package graphql

import (
	"context"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrorRecorder учитывает ошибки операций; реализуется metrics.Metrics
type ErrorRecorder interface {
	OperationError(operation, kind string)
}

type nopRecorder struct{}

func (nopRecorder) OperationError(string, string) {}

// panicLogger передает паники резолверов в zap
type panicLogger struct {
	log *zap.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.log.Error("panic in resolver", zap.Any("panic", value), zap.Stack("stack"))
}

// fail приводит ошибку операции к apperr.Error. Ошибки без вида логируются
// и заменяются на Internal.
func (r *Resolver) fail(ctx context.Context, operation string, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		r.logger(ctx).Error("operation failed", zap.String("operation", operation), zap.Error(err))
		appErr = apperr.Internal()
	}
	r.recorder.OperationError(operation, string(appErr.Kind))
	return appErr
}

func (r *Resolver) logger(ctx context.Context) *zap.Logger {
	if sc, ok := ScopeFrom(ctx); ok {
		return sc.Log
	}
	return r.log
}
