package access

import (
	"context"
	"net/http"
	"strings"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/pkg/errors"
)

const HeaderAccessKey = "X-Access-Key"

var ErrInvalidBearer = errors.New("invalid bearer token")

// Credentials - ключ доступа или JWT, предъявленные клиентом
type Credentials struct {
	Key    string
	Bearer string
}

// CredentialsFromHeader читает X-Access-Key, иначе JWT из Authorization
func CredentialsFromHeader(h http.Header) Credentials {
	if key := h.Get(HeaderAccessKey); key != "" {
		return Credentials{Key: key}
	}
	if token, ok := strings.CutPrefix(h.Get("Authorization"), "Bearer "); ok {
		return Credentials{Bearer: strings.TrimSpace(token)}
	}
	return Credentials{}
}

func (c Credentials) Empty() bool {
	return c.Key == "" && c.Bearer == ""
}

type UserGetter interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// Resolve возвращает ключ доступа. JWT превращается в ключ его владельца;
// подделанный, просроченный или ссылающийся на удаленного пользователя
// токен дает ErrInvalidBearer.
func (c Credentials) Resolve(ctx context.Context, issuer *Issuer, users UserGetter) (string, error) {
	if c.Bearer == "" {
		return c.Key, nil
	}
	userID, err := issuer.Parse(c.Bearer)
	if err != nil {
		return "", errors.Wrap(ErrInvalidBearer, err.Error())
	}
	user, err := users.GetUser(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", errors.Wrap(ErrInvalidBearer, "user not found")
	}
	if err != nil {
		return "", err
	}
	return user.AccessKey, nil
}
