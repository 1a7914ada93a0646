package apperr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("post %d not found", 5)))
	assert.Equal(t, KindAuthorizationDenied, KindOf(errors.Wrap(AuthorizationDenied("access denied"), "createLike")))
	assert.Equal(t, KindInternal, KindOf(errors.New("ошибка хранилища")))

	assert.True(t, Is(InvalidArgument("bad"), KindInvalidArgument))
	assert.False(t, Is(nil, KindInternal))
}

func TestExtensions(t *testing.T) {
	err := NotFound("post %d not found", 5)
	assert.Equal(t, "post 5 not found", err.Error())
	assert.Equal(t, map[string]interface{}{"code": "NOT_FOUND"}, err.Extensions())
	assert.Equal(t, "internal error", Internal().Error())
}
