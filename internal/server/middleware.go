package server

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ButyrinIA/socialgraph/internal/access"
	"github.com/ButyrinIA/socialgraph/internal/graphql"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

type loggerKey struct{}

func loggerFrom(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return fallback
}

// statusWriter запоминает код ответа и пропускает Hijack для websocket
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument присваивает запросу id, логирует его и учитывает в метриках
func (s *Server) instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		log := s.log.With(zap.String("request_id", requestID))
		w.Header().Set(headerRequestID, requestID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		ctx := context.WithValue(r.Context(), loggerKey{}, log)
		next.ServeHTTP(sw, r.WithContext(ctx))

		elapsed := time.Since(start)
		s.metrics.ObserveRequest(path, sw.status, elapsed)
		log.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", elapsed))
	})
}

// withScope открывает сессию хранилища на время запроса и кладет в контекст
// Scope с предъявленным токеном. Сессия освобождается по завершении запроса.
func (s *Server) withScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := loggerFrom(ctx, s.log)

		sess, err := s.store.Session(ctx)
		if err != nil {
			log.Error("failed to open storage session", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		defer sess.Release()

		token, err := access.CredentialsFromHeader(r.Header).Resolve(ctx, s.issuer, sess)
		if errors.Is(err, access.ErrInvalidBearer) {
			log.Info("rejected bearer token", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		if err != nil {
			log.Error("failed to resolve bearer token", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx = graphql.WithScope(ctx, graphql.NewScope(sess, token, log))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
