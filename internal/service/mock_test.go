package service

import (
	"context"

	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/stretchr/testify/mock"
)

// мок для интерфейса storage.Session
type mockSession struct {
	mock.Mock
}

func (m *mockSession) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockSession) GetUsers(ctx context.Context, ids []int) ([]*models.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockSession) GetUserByAccessKey(ctx context.Context, accessKey string) (*models.User, error) {
	args := m.Called(ctx, accessKey)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockSession) ListUsers(ctx context.Context, afterID int, limit int) (*models.UserPage, error) {
	args := m.Called(ctx, afterID, limit)
	return args.Get(0).(*models.UserPage), args.Error(1)
}

func (m *mockSession) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockSession) GetPost(ctx context.Context, id int) (*models.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *mockSession) GetPosts(ctx context.Context, ids []int) ([]*models.Post, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *mockSession) ListPostsByUser(ctx context.Context, userID int, limit *int) ([]*models.Post, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *mockSession) CreatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockSession) DeletePost(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSession) GetComment(ctx context.Context, id int) (*models.Comment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *mockSession) ListCommentsByUser(ctx context.Context, userID int, limit *int) ([]*models.Comment, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *mockSession) ListCommentsByPost(ctx context.Context, postID int, limit *int) ([]*models.Comment, error) {
	args := m.Called(ctx, postID, limit)
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *mockSession) CreateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockSession) DeleteComment(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSession) ListLikesByUser(ctx context.Context, userID int, limit *int) ([]*models.Like, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]*models.Like), args.Error(1)
}

func (m *mockSession) ListLikesByPost(ctx context.Context, postID int, limit *int) ([]*models.Like, error) {
	args := m.Called(ctx, postID, limit)
	return args.Get(0).([]*models.Like), args.Error(1)
}

func (m *mockSession) ListLikesByComment(ctx context.Context, commentID int, limit *int) ([]*models.Like, error) {
	args := m.Called(ctx, commentID, limit)
	return args.Get(0).([]*models.Like), args.Error(1)
}

func (m *mockSession) CreateLike(ctx context.Context, like *models.Like) error {
	args := m.Called(ctx, like)
	return args.Error(0)
}

func (m *mockSession) Release() {
	m.Called()
}
