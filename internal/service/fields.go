package service

import (
	"context"

	"github.com/ButyrinIA/socialgraph/internal/access"
	"github.com/ButyrinIA/socialgraph/internal/models"
)

// Поля, раскрывающие связанные строки, и требуемое для них отношение.
// Проверка выполняется до обращения к хранилищу за самими строками.
const (
	FieldUserPosts    = "User.posts"
	FieldUserComments = "User.comments"
	FieldUserLikes    = "User.likes"
	FieldPostComments = "Post.comments"
	FieldPostLikes    = "Post.likes"
	FieldCommentLikes = "Comment.likes"
	FieldLikeUser     = "Like.user"
)

var fieldRelations = map[string]access.Relation{
	FieldUserPosts:    access.Owner,
	FieldUserComments: access.Owner,
	FieldUserLikes:    access.Owner,
	FieldPostComments: access.Public,
	FieldPostLikes:    access.Owner,
	FieldCommentLikes: access.Owner,
	FieldLikeUser:     access.Owner,
}

// FieldRelation возвращает отношение, которого требует поле
func FieldRelation(field string) access.Relation {
	rel, ok := fieldRelations[field]
	if !ok {
		return access.Owner
	}
	return rel
}

func (s *Service) authorizeField(field, presented, required string) error {
	return s.policy.Authorize(presented, required, FieldRelation(field))
}

// ownerToken возвращает ключ владельца, если поле его требует; для публичных
// полей хранилище не запрашивается.
func (s *Service) ownerToken(ctx context.Context, req Request, field string, ownerID int) (string, error) {
	if FieldRelation(field) != access.Owner {
		return "", nil
	}
	owner, err := req.user(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return owner.AccessKey, nil
}

func (s *Service) UserPosts(ctx context.Context, req Request, user *models.User, limit *int) ([]*models.Post, error) {
	if err := s.authorizeField(FieldUserPosts, req.Token, user.AccessKey); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return req.Session.ListPostsByUser(ctx, user.ID, limit)
}

func (s *Service) UserComments(ctx context.Context, req Request, user *models.User, limit *int) ([]*models.Comment, error) {
	if err := s.authorizeField(FieldUserComments, req.Token, user.AccessKey); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return req.Session.ListCommentsByUser(ctx, user.ID, limit)
}

func (s *Service) UserLikes(ctx context.Context, req Request, user *models.User, limit *int) ([]*models.Like, error) {
	if err := s.authorizeField(FieldUserLikes, req.Token, user.AccessKey); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return req.Session.ListLikesByUser(ctx, user.ID, limit)
}

func (s *Service) PostComments(ctx context.Context, req Request, post *models.Post, limit *int) ([]*models.Comment, error) {
	required, err := s.ownerToken(ctx, req, FieldPostComments, post.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeField(FieldPostComments, req.Token, required); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return req.Session.ListCommentsByPost(ctx, post.ID, limit)
}

func (s *Service) PostLikes(ctx context.Context, req Request, post *models.Post, limit *int) ([]*models.Like, error) {
	required, err := s.ownerToken(ctx, req, FieldPostLikes, post.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeField(FieldPostLikes, req.Token, required); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return req.Session.ListLikesByPost(ctx, post.ID, limit)
}

func (s *Service) CommentLikes(ctx context.Context, req Request, comment *models.Comment, limit *int) ([]*models.Like, error) {
	required, err := s.ownerToken(ctx, req, FieldCommentLikes, comment.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeField(FieldCommentLikes, req.Token, required); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return req.Session.ListLikesByComment(ctx, comment.ID, limit)
}

// LikeUser возвращает автора лайка. Токен сверяется с ключом владельца
// пролайканного поста или комментария.
func (s *Service) LikeUser(ctx context.Context, req Request, like *models.Like) (*models.User, error) {
	var ownerID int
	switch {
	case like.PostID != nil:
		post, err := req.Session.GetPost(ctx, *like.PostID)
		if err != nil {
			return nil, err
		}
		ownerID = post.UserID
	case like.CommentID != nil:
		comment, err := req.Session.GetComment(ctx, *like.CommentID)
		if err != nil {
			return nil, err
		}
		ownerID = comment.UserID
	}

	required, err := s.ownerToken(ctx, req, FieldLikeUser, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeField(FieldLikeUser, req.Token, required); err != nil {
		return nil, err
	}
	return req.user(ctx, like.UserID)
}
