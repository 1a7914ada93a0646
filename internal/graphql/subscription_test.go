package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ButyrinIA/socialgraph/internal/access"
	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	gql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	storage.Storage
	opened   atomic.Int32
	released atomic.Int32
}

type countingSession struct {
	storage.Session
	store *countingStore
}

func (s *countingStore) Session(ctx context.Context) (storage.Session, error) {
	sess, err := s.Storage.Session(ctx)
	if err != nil {
		return nil, err
	}
	s.opened.Add(1)
	return &countingSession{Session: sess, store: s}, nil
}

func (s *countingSession) Release() {
	s.store.released.Add(1)
	s.Session.Release()
}

func upgradeContext(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, upgradeHeaderKey, h)
}

func initContext(ctx context.Context, payload string) context.Context {
	return context.WithValue(ctx, initPayloadKey, json.RawMessage(payload))
}

func TestSubscriptionCredentials(t *testing.T) {
	header := http.Header{}
	header.Set(access.HeaderAccessKey, "xyz")

	tests := []struct {
		name string
		ctx  context.Context
		want access.Credentials
	}{
		{"без данных", context.Background(), access.Credentials{}},
		{"заголовок запроса", upgradeContext(context.Background(), header), access.Credentials{Key: "xyz"}},
		{"payload connection_init", initContext(context.Background(), `{"X-Access-Key": "abc"}`), access.Credentials{Key: "abc"}},
		{"payload важнее заголовка", initContext(upgradeContext(context.Background(), header), `{"x-access-key": "abc"}`), access.Credentials{Key: "abc"}},
		{"пустой payload", initContext(upgradeContext(context.Background(), header), `{}`), access.Credentials{Key: "xyz"}},
		{"bearer в payload", initContext(context.Background(), `{"Authorization": "Bearer token"}`), access.Credentials{Bearer: "token"}},
		{"невалидный payload", initContext(context.Background(), `[1, 2]`), access.Credentials{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, subscriptionCredentials(tt.ctx))
		})
	}
}

func newSubscriptionService(t *testing.T, e *env) (*SubscriptionService, *countingStore, *access.Issuer) {
	t.Helper()
	store := &countingStore{Storage: e.store}
	issuer := access.NewIssuer("secret", time.Hour)
	sub, err := NewSubscriptionService(e.schema, store, issuer, nil)
	require.NoError(t, err)
	return sub, store, issuer
}

func TestSubscribe_InvalidDocument(t *testing.T) {
	e := newEnv(t)
	sub, store, _ := newSubscriptionService(t, e)

	_, err := sub.Subscribe(context.Background(), `subscription { commentAdded(postId: 1) { missing } }`, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	_, err = sub.Subscribe(context.Background(), `subscription {`, "", nil)
	require.Error(t, err)
	assert.Zero(t, store.opened.Load(), "сессия не должна открываться для невалидного документа")
}

func TestSubscribe_InvalidBearer(t *testing.T) {
	e := newEnv(t)
	sub, store, _ := newSubscriptionService(t, e)

	header := http.Header{}
	header.Set("Authorization", "Bearer invalid-token")
	_, err := sub.Subscribe(upgradeContext(context.Background(), header),
		`subscription { commentAdded(postId: 1) { content } }`, "", nil)
	assert.True(t, apperr.Is(err, apperr.KindAuthorizationDenied), "ожидался отказ в доступе, получено %v", err)
	assert.Equal(t, int32(1), store.opened.Load())
	assert.Equal(t, int32(1), store.released.Load())
}

func TestSubscribe_OwnerField(t *testing.T) {
	e := newEnv(t)
	sub, store, issuer := newSubscriptionService(t, e)
	_, resp := e.exec(t, "abc", `mutation { createPost(title: "T", content: "C") { id } }`, nil)
	require.Empty(t, resp.Errors)

	bearer, err := issuer.Issue(2)
	require.NoError(t, err)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+bearer)

	ctx, cancel := context.WithCancel(upgradeContext(context.Background(), header))
	defer cancel()
	payloads, err := sub.Subscribe(ctx, `subscription { commentAdded(postId: 1) { content likes { id } } }`, "", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return e.broker.subscriberCount(1) == 1 }, time.Second, 10*time.Millisecond)

	_, resp = e.exec(t, "xyz", `mutation { createComment(postId: 1, content: "К") { id } }`, nil)
	require.Empty(t, resp.Errors)

	select {
	case payload := <-payloads:
		r, ok := payload.(*gql.Response)
		require.True(t, ok)
		require.Empty(t, r.Errors, "автор комментария должен видеть его лайки")
		assert.JSONEq(t, `{"commentAdded": {"content": "К", "likes": []}}`, string(r.Data))
	case <-time.After(time.Second):
		t.Fatal("комментарий не получен")
	}

	cancel()
	assert.Eventually(t, func() bool { return store.released.Load() == 1 }, time.Second, 10*time.Millisecond)
}
