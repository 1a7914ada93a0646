package graphql

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ButyrinIA/socialgraph/internal/access"
	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	gql "github.com/graph-gophers/graphql-go"
	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

// Ключи, под которыми graphqlws кладет в контекст операции payload
// connection_init и заголовки запроса на установку соединения
const (
	initPayloadKey   = "Header"
	upgradeHeaderKey = "RequestHeader"
)

// SubscriptionService исполняет подписки для graphqlws. На время подписки
// открывается собственная сессия хранилища; она освобождается после отмены ctx.
type SubscriptionService struct {
	schema    *gql.Schema
	schemaAST *ast.Schema
	store     storage.Storage
	issuer    *access.Issuer
	log       *zap.Logger
}

func NewSubscriptionService(schema *gql.Schema, store storage.Storage, issuer *access.Issuer,
	log *zap.Logger) (*SubscriptionService, error) {
	if log == nil {
		log = zap.NewNop()
	}
	schemaAST, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	return &SubscriptionService{
		schema:    schema,
		schemaAST: schemaAST,
		store:     store,
		issuer:    issuer,
		log:       log,
	}, nil
}

func (s *SubscriptionService) Subscribe(ctx context.Context, document string, operationName string,
	variableValues map[string]interface{}) (<-chan interface{}, error) {
	// невалидный документ отклоняется до открытия сессии
	if _, errs := gqlparser.LoadQuery(s.schemaAST, document); len(errs) > 0 {
		return nil, errs
	}

	sess, err := s.store.Session(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "открытие сессии для подписки")
	}

	log := s.log.With(zap.String("operation", operationName))
	token, err := subscriptionCredentials(ctx).Resolve(ctx, s.issuer, sess)
	if err != nil {
		sess.Release()
		if errors.Is(err, access.ErrInvalidBearer) {
			log.Info("rejected bearer token", zap.Error(err))
			return nil, apperr.AuthorizationDenied("invalid bearer token")
		}
		return nil, err
	}

	ctx = WithScope(ctx, NewScope(sess, token, log))
	payloads, err := s.schema.Subscribe(ctx, document, operationName, variableValues)
	if err != nil {
		sess.Release()
		return nil, err
	}

	go func() {
		<-ctx.Done()
		sess.Release()
		log.Debug("subscription finished")
	}()
	return payloads, nil
}

// subscriptionCredentials берет ключ из payload connection_init, а если его
// там нет, из заголовков запроса на установку websocket
func subscriptionCredentials(ctx context.Context) access.Credentials {
	if payload, ok := ctx.Value(initPayloadKey).(json.RawMessage); ok && len(payload) > 0 {
		var fields map[string]interface{}
		if err := json.Unmarshal(payload, &fields); err == nil {
			h := http.Header{}
			for k, v := range fields {
				if value, ok := v.(string); ok {
					h.Set(k, value)
				}
			}
			if creds := access.CredentialsFromHeader(h); !creds.Empty() {
				return creds
			}
		}
	}
	if h, ok := ctx.Value(upgradeHeaderKey).(http.Header); ok {
		return access.CredentialsFromHeader(h)
	}
	return access.Credentials{}
}
