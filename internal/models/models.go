package models

import "github.com/marshallshelly/pebble-orm/pkg/schema"

func init() {
	schema.RegisterTableName("User", "users")
	schema.RegisterTableName("Post", "posts")
	schema.RegisterTableName("Comment", "comments")
	schema.RegisterTableName("Like", "likes")
}

// User - владелец постов, комментариев и лайков.
// AccessKey никогда не отдается наружу через GraphQL.
type User struct {
	ID        int    `po:"id,primaryKey,serial" json:"id"`
	Username  string `po:"username,varchar(64),unique,notNull" json:"username"`
	AccessKey string `po:"access_key,varchar(128),unique,notNull" json:"-"`
}

type Post struct {
	ID      int    `po:"id,primaryKey,serial" json:"id"`
	Title   string `po:"title,varchar(200),notNull" json:"title"`
	Content string `po:"content,text,notNull" json:"content"`
	UserID  int    `po:"user_id,integer,notNull" json:"userId"`
}

type Comment struct {
	ID      int    `po:"id,primaryKey,serial" json:"id"`
	Content string `po:"content,text,notNull" json:"content"`
	UserID  int    `po:"user_id,integer,notNull" json:"userId"`
	PostID  int    `po:"post_id,integer,notNull" json:"postId"`
}

// Like ссылается ровно на одну из сущностей: пост или комментарий.
type Like struct {
	ID        int  `po:"id,primaryKey,serial" json:"id"`
	UserID    int  `po:"user_id,integer,notNull" json:"userId"`
	PostID    *int `po:"post_id,integer" json:"postId"`
	CommentID *int `po:"comment_id,integer" json:"commentId"`
}

// HasSingleTarget возвращает true, если лайк ссылается ровно на одну сущность.
func (l *Like) HasSingleTarget() bool {
	return (l.PostID == nil) != (l.CommentID == nil)
}

// UserPage - страница пользователей с курсором по id
type UserPage struct {
	Users       []*User `json:"users"`
	TotalCount  int     `json:"totalCount"`
	HasNextPage bool    `json:"hasNextPage"`
}
