package content

import (
	"context"
	"time"
)

// Service validates content input and applies it to a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a content service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// CreateCategory validates and stores a new category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	c := &Category{Name: in.Name, Color: in.Color}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory replaces name and colour of an existing category.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*Category, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	c := &Category{ID: id, Name: in.Name, Color: in.Color}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// DeleteCategory removes an unused category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

// CreateEvent validates and stores a new event created by userID.
func (s *Service) CreateEvent(ctx context.Context, userID int64, in EventInput) (*Event, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	e := &Event{
		CategoryID: in.CategoryID,
		Title:      in.Title,
		CreatedBy:  &userID,
		CreatedAt:  s.stamp(),
		StartDate:  in.StartDate.UTC().Truncate(time.Second),
		EndDate:    in.EndDate.UTC().Truncate(time.Second),
		Location:   in.Location,
	}
	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEvent replaces the writable fields of an existing event.
func (s *Service) UpdateEvent(ctx context.Context, id int64, in EventInput) (*Event, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	e, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	e.CategoryID = in.CategoryID
	e.Title = in.Title
	e.StartDate = in.StartDate.UTC().Truncate(time.Second)
	e.EndDate = in.EndDate.UTC().Truncate(time.Second)
	e.Location = in.Location

	if err := s.repo.UpdateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEvent returns one event.
func (s *Service) GetEvent(ctx context.Context, id int64) (*Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// ListEvents returns events matching f.
func (s *Service) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	return s.repo.ListEvents(ctx, f)
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	return s.repo.DeleteEvent(ctx, id)
}

// CreatePost validates and stores a new post written by userID.
func (s *Service) CreatePost(ctx context.Context, userID int64, in PostInput) (*Post, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	p := &Post{
		Title:      in.Title,
		Body:       in.Body,
		CategoryID: in.CategoryID,
		CreatorID:  &userID,
		IsVisible:  in.IsVisible == nil || *in.IsVisible,
		CreatedAt:  s.stamp(),
	}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePost replaces title, body and category; visibility changes only
// when in.IsVisible is set.
func (s *Service) UpdatePost(ctx context.Context, id int64, in PostInput) (*Post, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Title = in.Title
	p.Body = in.Body
	p.CategoryID = in.CategoryID
	if in.IsVisible != nil {
		p.IsVisible = *in.IsVisible
	}

	if err := s.repo.UpdatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost returns one post. When visibleOnly is set a hidden post is
// reported as ErrNotFound.
func (s *Service) GetPost(ctx context.Context, id int64, visibleOnly bool) (*Post, error) {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if visibleOnly && !p.IsVisible {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListPosts returns posts matching f.
func (s *Service) ListPosts(ctx context.Context, f PostFilter) ([]Post, error) {
	return s.repo.ListPosts(ctx, f)
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	return s.repo.DeletePost(ctx, id)
}
