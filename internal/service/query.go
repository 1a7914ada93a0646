package service

import (
	"context"

	"github.com/ButyrinIA/socialgraph/internal/access"
	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
)

// User - корневой запрос user(id). По умолчанию достаточно наличия токена;
// при StrictUserLookup токен должен принадлежать запрошенному пользователю.
func (s *Service) User(ctx context.Context, req Request, id int) (*models.User, error) {
	if err := s.policy.Authorize(req.Token, "", access.Present); err != nil {
		return nil, err
	}
	user, err := req.Session.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.policy.StrictUserLookup() {
		if err := s.policy.Authorize(req.Token, user.AccessKey, access.Owner); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Posts - корневой запрос posts(ids) без фильтрации по владельцу
func (s *Service) Posts(ctx context.Context, req Request, ids []int) ([]*models.Post, error) {
	if err := s.policy.Authorize(req.Token, "", access.Present); err != nil {
		return nil, err
	}
	return req.Session.GetPosts(ctx, ids)
}

// AllUsers - постраничный список всех пользователей по демонстрационному токену
func (s *Service) AllUsers(ctx context.Context, req Request, first *int, after *string) (*models.UserPage, error) {
	if err := s.policy.Authorize(req.Token, "", access.Demo); err != nil {
		return nil, err
	}

	limit := s.pageSize
	if first != nil {
		if *first < 0 || *first > maxPageSize {
			return nil, apperr.InvalidArgument("first must be between 0 and %d", maxPageSize)
		}
		limit = *first
	}

	afterID := 0
	if after != nil {
		id, err := DecodeCursor(*after)
		if err != nil {
			return nil, err
		}
		afterID = id
	}
	return req.Session.ListUsers(ctx, afterID, limit)
}
