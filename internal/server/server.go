package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/ButyrinIA/socialgraph/internal/access"
	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/config"
	"github.com/ButyrinIA/socialgraph/internal/graphql"
	"github.com/ButyrinIA/socialgraph/internal/metrics"
	"github.com/ButyrinIA/socialgraph/internal/service"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"github.com/dgraph-io/graphql-transport-ws/graphqlws"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Server struct {
	cfg     *config.Config
	store   storage.Storage
	issuer  *access.Issuer
	metrics *metrics.Metrics
	log     *zap.Logger
	handler http.Handler
}

func New(cfg *config.Config, store storage.Storage, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		issuer:  access.NewIssuer(cfg.Access.JWTSecret, cfg.Access.JWTTTL),
		metrics: metrics.New(),
		log:     log,
	}

	broker := graphql.NewBroker()
	svc := service.New(
		access.NewPolicy(cfg.Access.DemoToken, cfg.Access.StrictUserLookup),
		service.WithPublisher(broker),
		service.WithPageSize(cfg.GraphQL.DefaultPageSize),
		service.WithLogger(log.Named("service")),
	)
	schema, err := graphql.NewSchema(svc, broker, graphql.Options{
		MaxDepth: cfg.GraphQL.MaxDepth,
		Logger:   log.Named("graphql"),
		Errors:   s.metrics,
	})
	if err != nil {
		return nil, err
	}

	queries := s.withScope(&relay.Handler{Schema: schema})
	subscriptions, err := graphql.NewSubscriptionService(schema, store, s.issuer, log.Named("subscription"))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/", s.instrument("/", playground.Handler("GraphQL playground", "/query")))
	mux.Handle("/query", s.instrument("/query", graphqlws.NewHandlerFunc(subscriptions, queries)))
	mux.Handle("/token", s.instrument("/token", http.HandlerFunc(s.tokenHandler)))
	mux.Handle("/healthz", s.instrument("/healthz", http.HandlerFunc(s.healthHandler)))
	mux.Handle("/metrics", s.metrics.Handler())
	s.handler = mux

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server started", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// tokenHandler обменивает ключ доступа на JWT
func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	key := r.Header.Get(access.HeaderAccessKey)
	if key == "" {
		writeError(w, http.StatusUnauthorized, "missing access key")
		return
	}
	log := loggerFrom(r.Context(), s.log)

	sess, err := s.store.Session(r.Context())
	if err != nil {
		log.Error("failed to open storage session", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	defer sess.Release()

	user, err := sess.GetUserByAccessKey(r.Context(), key)
	if apperr.Is(err, apperr.KindNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid access key")
		return
	}
	if err != nil {
		log.Error("failed to look up access key", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Session(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	sess.Release()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
