package memory

import (
	"context"
	"testing"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
	"github.com/ButyrinIA/socialgraph/internal/models"
	"github.com/ButyrinIA/socialgraph/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int {
	return &i
}

func newSession(t *testing.T) (*MemoryStorage, storage.Session) {
	t.Helper()
	store := New()
	sess, err := store.Session(context.Background())
	require.NoError(t, err)
	t.Cleanup(sess.Release)
	return store, sess
}

func createUser(t *testing.T, sess storage.Session, name, key string) *models.User {
	t.Helper()
	user := &models.User{Username: name, AccessKey: key}
	require.NoError(t, sess.CreateUser(context.Background(), user), "Ошибка при создании пользователя")
	return user
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatePost and GetPost", func(t *testing.T) {
		_, sess := newSession(t)
		user := createUser(t, sess, "alice", "abc")

		post := &models.Post{Title: "Тестовый пост", Content: "Содержимое", UserID: user.ID}
		err := sess.CreatePost(ctx, post)
		assert.NoError(t, err, "Ошибка при создании поста")
		assert.Equal(t, 1, post.ID, "Ожидался первый id")

		retrieved, err := sess.GetPost(ctx, post.ID)
		assert.NoError(t, err, "Ошибка при получении поста")
		assert.Equal(t, post, retrieved, "Полученный пост не совпадает с созданным")
	})

	t.Run("GetPost Not Found", func(t *testing.T) {
		_, sess := newSession(t)

		_, err := sess.GetPost(ctx, 42)
		assert.Error(t, err, "Ожидалась ошибка для несуществующего поста")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Equal(t, "post not found", err.Error(), "Неверное сообщение об ошибке")
	})

	t.Run("CreatePost Unknown User", func(t *testing.T) {
		_, sess := newSession(t)

		err := sess.CreatePost(ctx, &models.Post{Title: "T", Content: "C", UserID: 99})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("ListPostsByUser with limit", func(t *testing.T) {
		_, sess := newSession(t)
		alice := createUser(t, sess, "alice", "abc")
		bob := createUser(t, sess, "bob", "xyz")

		for _, title := range []string{"Пост 1", "Пост 2", "Пост 3"} {
			require.NoError(t, sess.CreatePost(ctx, &models.Post{Title: title, UserID: alice.ID}))
		}
		require.NoError(t, sess.CreatePost(ctx, &models.Post{Title: "Чужой", UserID: bob.ID}))

		all, err := sess.ListPostsByUser(ctx, alice.ID, nil)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		limited, err := sess.ListPostsByUser(ctx, alice.ID, intPtr(2))
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, "Пост 1", limited[0].Title, "Ожидался порядок вставки")
		assert.Equal(t, "Пост 2", limited[1].Title)

		none, err := sess.ListPostsByUser(ctx, alice.ID, intPtr(0))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("GetPosts by ids", func(t *testing.T) {
		_, sess := newSession(t)
		user := createUser(t, sess, "alice", "abc")
		for i := 0; i < 3; i++ {
			require.NoError(t, sess.CreatePost(ctx, &models.Post{Title: "T", UserID: user.ID}))
		}

		posts, err := sess.GetPosts(ctx, []int{3, 1, 100})
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, 1, posts[0].ID)
		assert.Equal(t, 3, posts[1].ID)
	})

	t.Run("DeletePost cascades", func(t *testing.T) {
		_, sess := newSession(t)
		user := createUser(t, sess, "alice", "abc")
		post := &models.Post{Title: "T", UserID: user.ID}
		require.NoError(t, sess.CreatePost(ctx, post))
		comment := &models.Comment{Content: "C", UserID: user.ID, PostID: post.ID}
		require.NoError(t, sess.CreateComment(ctx, comment))
		require.NoError(t, sess.CreateLike(ctx, &models.Like{UserID: user.ID, PostID: intPtr(post.ID)}))
		require.NoError(t, sess.CreateLike(ctx, &models.Like{UserID: user.ID, CommentID: intPtr(comment.ID)}))

		require.NoError(t, sess.DeletePost(ctx, post.ID))

		_, err := sess.GetComment(ctx, comment.ID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound), "Комментарий должен быть удален вместе с постом")
		likes, err := sess.ListLikesByUser(ctx, user.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, likes, "Лайки должны быть удалены вместе с постом")

		err = sess.DeletePost(ctx, post.ID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("CreateLike requires single target", func(t *testing.T) {
		_, sess := newSession(t)
		user := createUser(t, sess, "alice", "abc")
		post := &models.Post{Title: "T", UserID: user.ID}
		require.NoError(t, sess.CreatePost(ctx, post))
		comment := &models.Comment{Content: "C", UserID: user.ID, PostID: post.ID}
		require.NoError(t, sess.CreateComment(ctx, comment))

		err := sess.CreateLike(ctx, &models.Like{UserID: user.ID})
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
		err = sess.CreateLike(ctx, &models.Like{UserID: user.ID, PostID: intPtr(post.ID), CommentID: intPtr(comment.ID)})
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))

		likes, err := sess.ListLikesByUser(ctx, user.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, likes)

		like := &models.Like{UserID: user.ID, CommentID: intPtr(comment.ID)}
		require.NoError(t, sess.CreateLike(ctx, like))
		byComment, err := sess.ListLikesByComment(ctx, comment.ID, nil)
		require.NoError(t, err)
		require.Len(t, byComment, 1)
		assert.Equal(t, like.ID, byComment[0].ID)
		assert.Nil(t, byComment[0].PostID)
	})

	t.Run("ListUsers pages", func(t *testing.T) {
		_, sess := newSession(t)
		createUser(t, sess, "alice", "a")
		createUser(t, sess, "bob", "b")
		createUser(t, sess, "carol", "c")

		page, err := sess.ListUsers(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount)
		assert.True(t, page.HasNextPage)
		require.Len(t, page.Users, 2)

		next, err := sess.ListUsers(ctx, page.Users[1].ID, 2)
		require.NoError(t, err)
		assert.False(t, next.HasNextPage)
		require.Len(t, next.Users, 1)
		assert.Equal(t, "carol", next.Users[0].Username)
	})

	t.Run("Unique users and seed", func(t *testing.T) {
		store, sess := newSession(t)
		createUser(t, sess, "alice", "abc")

		err := sess.CreateUser(ctx, &models.User{Username: "alice", AccessKey: "other"})
		assert.Error(t, err)

		err = store.Seed(ctx, []*models.User{
			{Username: "alice", AccessKey: "abc"},
			{Username: "bob", AccessKey: "xyz"},
		})
		require.NoError(t, err)

		bob, err := sess.GetUserByAccessKey(ctx, "xyz")
		require.NoError(t, err)
		assert.Equal(t, "bob", bob.Username)

		page, err := sess.ListUsers(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalCount)
	})

	t.Run("Released session", func(t *testing.T) {
		store := New()
		sess, err := store.Session(ctx)
		require.NoError(t, err)
		sess.Release()
		sess.Release()

		_, err = sess.GetUser(ctx, 1)
		assert.ErrorIs(t, err, storage.ErrSessionReleased)
	})
}

func TestListLikes_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	_, sess := newSession(t)
	user := createUser(t, sess, "alice", "abc")
	post := &models.Post{Title: "T", Content: "C", UserID: user.ID}
	require.NoError(t, sess.CreatePost(ctx, post))
	comment := &models.Comment{Content: "К", UserID: user.ID, PostID: post.ID}
	require.NoError(t, sess.CreateComment(ctx, comment))
	require.NoError(t, sess.CreateLike(ctx, &models.Like{UserID: user.ID, PostID: intPtr(post.ID)}))
	require.NoError(t, sess.CreateLike(ctx, &models.Like{UserID: user.ID, CommentID: intPtr(comment.ID)}))

	byPost, err := sess.ListLikesByPost(ctx, post.ID, nil)
	require.NoError(t, err)
	require.Len(t, byPost, 1)
	*byPost[0].PostID = 100

	byComment, err := sess.ListLikesByComment(ctx, comment.ID, nil)
	require.NoError(t, err)
	require.Len(t, byComment, 1)
	*byComment[0].CommentID = 100

	byUser, err := sess.ListLikesByUser(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, post.ID, *byUser[0].PostID, "изменение результата не должно менять хранимый лайк")
	assert.Equal(t, comment.ID, *byUser[1].CommentID, "изменение результата не должно менять хранимый лайк")
}
