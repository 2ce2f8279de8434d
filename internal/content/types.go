package content

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Field limits.
const (
	maxNameLength  = 64
	maxTitleLength = 200
	maxBodyLength  = 100_000
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Category groups events and posts and gives them a display colour.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryInput carries the writable fields of a category.
type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Validate checks name and colour (#rrggbb).
func (in CategoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&in.Color, validation.Required, validation.Match(colorPattern).Error("must be a colour in #rrggbb form")),
	)
}

// Location is an optional named place with coordinates.
type Location struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Validate checks coordinate ranges.
func (l Location) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Name, validation.Length(0, maxTitleLength)),
		validation.Field(&l.Lat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&l.Lng, validation.Min(-180.0), validation.Max(180.0)),
	)
}

// Event is a dated happening in a category.
type Event struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Title      string    `json:"title"`
	CreatedBy  *int64    `json:"created_by,omitempty"` // nil once the creator is deleted
	CreatedAt  time.Time `json:"created_at"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Location   *Location `json:"location,omitempty"`
}

// EventInput carries the writable fields of an event. The creator is
// taken from the authenticated account, not from the request body.
type EventInput struct {
	CategoryID int64     `json:"category_id"`
	Title      string    `json:"title"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Location   *Location `json:"location,omitempty"`
}

// Validate checks required fields, that the event does not end before it
// starts and, when present, the location.
func (in EventInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CategoryID, validation.Required),
		validation.Field(&in.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&in.StartDate, validation.Required),
		validation.Field(&in.EndDate, validation.Required, validation.By(notBefore(in.StartDate))),
		validation.Field(&in.Location, validation.By(validLocation)),
	)
}

func notBefore(start time.Time) validation.RuleFunc {
	return func(value any) error {
		end, _ := value.(time.Time)
		if !start.IsZero() && end.Before(start) {
			return errors.New("must not be before start_date")
		}
		return nil
	}
}

func validLocation(value any) error {
	loc, _ := value.(*Location)
	if loc == nil {
		return nil
	}
	return loc.Validate()
}

// Post is a news item in a category. Hidden posts are only listed to
// authenticated callers.
type Post struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CategoryID int64     `json:"category_id"`
	CreatorID  *int64    `json:"creator_id,omitempty"`
	IsVisible  bool      `json:"is_visible"`
	CreatedAt  time.Time `json:"created_at"`
}

// PostInput carries the writable fields of a post. A nil IsVisible means
// visible on create and unchanged on update.
type PostInput struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	CategoryID int64  `json:"category_id"`
	IsVisible  *bool  `json:"is_visible,omitempty"`
}

// Validate checks required fields and lengths.
func (in PostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&in.Body, validation.Required, validation.Length(1, maxBodyLength)),
		validation.Field(&in.CategoryID, validation.Required),
	)
}

// EventFilter narrows ListEvents. Zero fields do not filter.
type EventFilter struct {
	CategoryID int64
	From       time.Time // start_date >= From
	To         time.Time // start_date < To
}

// PostFilter narrows ListPosts.
type PostFilter struct {
	CategoryID  int64
	VisibleOnly bool
}

// invalid wraps a validation failure so callers can match ErrInvalidInput
// and still errors.As the per-field validation.Errors.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
