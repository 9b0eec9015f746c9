package domain

import "time"

type Comment struct {
	CommentID   string       `json:"id" dynamodbav:"comment_id"`
	Text        string       `json:"text" dynamodbav:"text"`
	CommentedBy string       `json:"commented_by" dynamodbav:"commented_by"`
	CreatedAt   time.Time    `json:"created" dynamodbav:"created_at"`
	Author      *UserSummary `json:"author,omitempty" dynamodbav:"-"`
}

// Post is a photo post. Likes is a set of user IDs.
type Post struct {
	PostID    string       `json:"id" dynamodbav:"post_id"`
	PostedBy  string       `json:"posted_by" dynamodbav:"posted_by"`
	Title     string       `json:"title" dynamodbav:"title"`
	Body      string       `json:"body" dynamodbav:"body"`
	Photo     string       `json:"photo" dynamodbav:"photo"`
	Likes     []string     `json:"likes" dynamodbav:"likes,stringset,omitempty"`
	Comments  []Comment    `json:"comments" dynamodbav:"comments"`
	CreatedAt time.Time    `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time    `json:"updated" dynamodbav:"updated_at"`
	Author    *UserSummary `json:"author,omitempty" dynamodbav:"-"`
}

type CreatePostRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
	Photo string `json:"photo" validate:"required"`
}

type UpdatePostRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
	Photo *string `json:"photo"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// PostPage is one page of the global feed.
type PostPage struct {
	Posts       []Post `json:"posts"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	TotalPosts  int    `json:"totalPosts"`
}
