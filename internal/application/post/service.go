package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/localtourx-api/internal/domain"
	"github.com/localtourx-api/internal/pkg/id"
	"github.com/localtourx-api/internal/pkg/validate"
)

const (
	fieldTitle = "title"
	fieldBody  = "body"
	fieldPhoto = "photo"
)

const (
	maxPageSize = 100
	maxPage     = 1 << 30
)

type Service interface {
	Create(ctx context.Context, ownerID string, req domain.CreatePostRequest) (*domain.Post, error)
	List(ctx context.Context, page, limit int) (*domain.PostPage, error)
	ListMine(ctx context.Context, ownerID string) ([]domain.Post, error)
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Like(ctx context.Context, postID, userID string) (*domain.Post, error)
	Unlike(ctx context.Context, postID, userID string) (*domain.Post, error)
	Comment(ctx context.Context, postID, userID string, req domain.CommentRequest) (*domain.Post, error)
	Update(ctx context.Context, postID, userID string, req domain.UpdatePostRequest) (*domain.Post, error)
	Delete(ctx context.Context, postID, userID string) error
}

type postStore interface {
	Put(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Delete(ctx context.Context, postID string) error
	Update(ctx context.Context, postID string, updates map[string]interface{}) (*domain.Post, error)
	AddLike(ctx context.Context, postID, userID string) (*domain.Post, error)
	RemoveLike(ctx context.Context, postID, userID string) (*domain.Post, error)
	AppendComment(ctx context.Context, postID string, c domain.Comment) (*domain.Post, error)
	ListFeed(ctx context.Context, page, limit int) ([]domain.Post, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Post, error)
}

type userLookup interface {
	GetMany(ctx context.Context, userIDs []string) (map[string]*domain.User, error)
}

type mediaStore interface {
	Delete(ctx context.Context, ref string) error
	Owns(ref, ownerID string) bool
}

type service struct {
	repo     postStore
	users    userLookup
	media    mediaStore
	pageSize int
	now      func() time.Time
}

type ServiceDeps struct {
	PostRepo postStore
	UserRepo userLookup
	Media    mediaStore
	PageSize int
	Now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:     deps.PostRepo,
		users:    deps.UserRepo,
		media:    deps.Media,
		pageSize: deps.PageSize,
		now:      deps.Now,
	}
	if s.pageSize <= 0 {
		s.pageSize = 10
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Create(ctx context.Context, ownerID string, req domain.CreatePostRequest) (*domain.Post, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrValidation)
	}
	if err := s.checkPhoto(req.Photo, ownerID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &domain.Post{
		PostID:    id.NewAt(now),
		PostedBy:  ownerID,
		Title:     req.Title,
		Body:      req.Body,
		Photo:     req.Photo,
		Likes:     []string{},
		Comments:  []domain.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	s.populate(ctx, p)
	return p, nil
}

func (s *service) List(ctx context.Context, page, limit int) (*domain.PostPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	limit = min(limit, maxPageSize)
	page = min(page, maxPage)

	posts, total, err := s.repo.ListFeed(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, toPtrs(posts)...)
	return &domain.PostPage{
		Posts:       posts,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalPosts:  total,
	}, nil
}

func (s *service) ListMine(ctx context.Context, ownerID string) ([]domain.Post, error) {
	posts, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, toPtrs(posts)...)
	return posts, nil
}

func (s *service) Get(ctx context.Context, postID string) (*domain.Post, error) {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, p)
	return p, nil
}

func (s *service) Like(ctx context.Context, postID, userID string) (*domain.Post, error) {
	p, err := s.repo.AddLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, p)
	return p, nil
}

func (s *service) Unlike(ctx context.Context, postID, userID string) (*domain.Post, error) {
	p, err := s.repo.RemoveLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, p)
	return p, nil
}

func (s *service) Comment(ctx context.Context, postID, userID string, req domain.CommentRequest) (*domain.Post, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrValidation)
	}
	now := s.now().UTC()
	p, err := s.repo.AppendComment(ctx, postID, domain.Comment{
		CommentID:   id.NewAt(now),
		Text:        req.Text,
		CommentedBy: userID,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	s.populate(ctx, p)
	return p, nil
}

// Update changes the supplied fields of a post owned by userID. A replaced
// photo is removed from the media host on a best-effort basis.
func (s *service) Update(ctx context.Context, postID, userID string, req domain.UpdatePostRequest) (*domain.Post, error) {
	updates := map[string]interface{}{}
	for field, v := range map[string]*string{fieldTitle: req.Title, fieldBody: req.Body, fieldPhoto: req.Photo} {
		if v == nil {
			continue
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed == "" {
			return nil, fmt.Errorf("%s cannot be empty: %w", field, domain.ErrValidation)
		}
		updates[field] = trimmed
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no post fields to update: %w", domain.ErrValidation)
	}

	existing, err := s.owned(ctx, postID, userID, "update")
	if err != nil {
		return nil, err
	}
	if photo, ok := updates[fieldPhoto].(string); ok && photo != existing.Photo {
		if err := s.checkPhoto(photo, userID); err != nil {
			return nil, err
		}
		s.removeMedia(ctx, existing)
	}
	p, err := s.repo.Update(ctx, postID, updates)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, p)
	return p, nil
}

// Delete removes a post owned by userID. Media cleanup never blocks the delete.
func (s *service) Delete(ctx context.Context, postID, userID string) error {
	existing, err := s.owned(ctx, postID, userID, "delete")
	if err != nil {
		return err
	}
	s.removeMedia(ctx, existing)
	return s.repo.Delete(ctx, postID)
}

func (s *service) owned(ctx context.Context, postID, userID, action string) (*domain.Post, error) {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.PostedBy != userID {
		return nil, fmt.Errorf("not allowed to %s this post: %w", action, domain.ErrForbidden)
	}
	return p, nil
}

// checkPhoto accepts only media uploaded for ownerID.
func (s *service) checkPhoto(ref, ownerID string) error {
	if s.media == nil || !s.media.Owns(ref, ownerID) {
		return fmt.Errorf("photo must be an image you uploaded: %w", domain.ErrValidation)
	}
	return nil
}

// removeMedia leaves objects outside the post owner's upload prefix alone.
func (s *service) removeMedia(ctx context.Context, p *domain.Post) {
	if s.media == nil || p.Photo == "" {
		return
	}
	if !s.media.Owns(p.Photo, p.PostedBy) {
		slog.Warn("skipping media not owned by post author", "post_id", p.PostID, "photo", p.Photo)
		return
	}
	if err := s.media.Delete(ctx, p.Photo); err != nil {
		slog.Warn("failed to delete post media", "post_id", p.PostID, "photo", p.Photo, "err", err)
	}
}

// populate attaches owner and commenter summaries to posts. A lookup failure
// leaves the summaries empty.
func (s *service) populate(ctx context.Context, posts ...*domain.Post) {
	if s.users == nil || len(posts) == 0 {
		return
	}
	var ids []string
	for _, p := range posts {
		ids = append(ids, p.PostedBy)
		for _, c := range p.Comments {
			ids = append(ids, c.CommentedBy)
		}
	}
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		slog.Warn("failed to load post authors", "err", err)
		return
	}
	for _, p := range posts {
		if u, ok := users[p.PostedBy]; ok {
			p.Author = u.Summary()
		}
		for i := range p.Comments {
			if u, ok := users[p.Comments[i].CommentedBy]; ok {
				p.Comments[i].Author = u.Summary()
			}
		}
	}
}

func toPtrs(posts []domain.Post) []*domain.Post {
	out := make([]*domain.Post, len(posts))
	for i := range posts {
		out[i] = &posts[i]
	}
	return out
}
