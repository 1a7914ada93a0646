package service

import (
	"context"
	"unicode/utf8"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"go.uber.org/zap"
)

// caller находит пользователя по предъявленному ключу
func (s *Service) caller(ctx context.Context, req Request) (*models.User, error) {
	if req.Token == "" {
		return nil, apperr.AuthorizationDenied("access denied: missing access key")
	}
	user, err := req.Session.GetUserByAccessKey(ctx, req.Token)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.AuthorizationDenied("access denied: invalid access key")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) CreatePost(ctx context.Context, req Request, title, content string) (*models.Post, error) {
	user, err := s.caller(ctx, req)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperr.InvalidArgument("title exceeds %d characters", maxTitleLength)
	}

	post := &models.Post{Title: title, Content: content, UserID: user.ID}
	if err := req.Session.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.log.Info("post created", zap.Int("post_id", post.ID), zap.Int("user_id", user.ID))
	return post, nil
}

func (s *Service) CreateComment(ctx context.Context, req Request, postID int, content string) (*models.Comment, error) {
	user, err := s.caller(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := req.Session.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, UserID: user.ID, PostID: postID}
	if err := req.Session.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	s.log.Info("comment created", zap.Int("comment_id", comment.ID), zap.Int("post_id", postID), zap.Int("user_id", user.ID))

	if s.publisher != nil {
		s.publisher.PublishComment(comment)
	}
	return comment, nil
}

// CreateLike ставит лайк ровно одной сущности: посту или комментарию
func (s *Service) CreateLike(ctx context.Context, req Request, postID, commentID *int) (*models.Like, error) {
	user, err := s.caller(ctx, req)
	if err != nil {
		return nil, err
	}

	like := &models.Like{UserID: user.ID, PostID: postID, CommentID: commentID}
	if !like.HasSingleTarget() {
		return nil, apperr.InvalidArgument("specify either postId or commentId")
	}
	if postID != nil {
		if _, err := req.Session.GetPost(ctx, *postID); err != nil {
			return nil, err
		}
	} else {
		if _, err := req.Session.GetComment(ctx, *commentID); err != nil {
			return nil, err
		}
	}

	if err := req.Session.CreateLike(ctx, like); err != nil {
		return nil, err
	}
	s.log.Info("like created", zap.Int("like_id", like.ID), zap.Int("user_id", user.ID))
	return like, nil
}

func (s *Service) DeletePost(ctx context.Context, req Request, postID int) (bool, error) {
	user, err := s.caller(ctx, req)
	if err != nil {
		return false, err
	}
	post, err := req.Session.GetPost(ctx, postID)
	if err != nil {
		return false, err
	}
	if post.UserID != user.ID {
		return false, apperr.AuthorizationDenied("access denied: you are not the owner of this post")
	}

	if err := req.Session.DeletePost(ctx, postID); err != nil {
		return false, err
	}
	s.log.Info("post deleted", zap.Int("post_id", postID), zap.Int("user_id", user.ID))
	return true, nil
}

func (s *Service) DeleteComment(ctx context.Context, req Request, commentID int) (bool, error) {
	user, err := s.caller(ctx, req)
	if err != nil {
		return false, err
	}
	comment, err := req.Session.GetComment(ctx, commentID)
	if err != nil {
		return false, err
	}
	if comment.UserID != user.ID {
		return false, apperr.AuthorizationDenied("access denied: you are not the owner of this comment")
	}

	if err := req.Session.DeleteComment(ctx, commentID); err != nil {
		return false, err
	}
	s.log.Info("comment deleted", zap.Int("comment_id", commentID), zap.Int("user_id", user.ID))
	return true, nil
}
