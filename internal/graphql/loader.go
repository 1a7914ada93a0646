package graphql

import (
	"context"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"github.com/graph-gophers/dataloader/v7"
)

// UserLoader группирует обращения к пользователям в пределах одного запроса
// в один GetUsers. Реализует service.UserLoader.
type UserLoader struct {
	loader *dataloader.Loader[int, *models.User]
}

func NewUserLoader(sess storage.Session) *UserLoader {
	batch := func(ctx context.Context, keys []int) []*dataloader.Result[*models.User] {
		results := make([]*dataloader.Result[*models.User], len(keys))
		users, err := sess.GetUsers(ctx, keys)
		if err != nil {
			for i := range keys {
				results[i] = &dataloader.Result[*models.User]{Error: err}
			}
			return results
		}

		byID := make(map[int]*models.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		for i, key := range keys {
			if u, ok := byID[key]; ok {
				results[i] = &dataloader.Result[*models.User]{Data: u}
			} else {
				results[i] = &dataloader.Result[*models.User]{Error: apperr.NotFound("user not found")}
			}
		}
		return results
	}
	return &UserLoader{loader: dataloader.NewBatchedLoader(batch)}
}

func (l *UserLoader) Load(ctx context.Context, id int) (*models.User, error) {
	return l.loader.Load(ctx, id)()
}
