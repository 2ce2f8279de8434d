package content

import "errors"

var (
	// ErrNotFound is returned when a category, event or post id does not exist.
	ErrNotFound = errors.New("content not found")

	// ErrInvalidInput wraps validation failures. The validation.Errors value
	// is also in the chain for per-field details.
	ErrInvalidInput = errors.New("invalid content input")

	// ErrInvalidReference is returned when a category or user id points nowhere.
	ErrInvalidReference = errors.New("referenced category or user does not exist")

	// ErrNameExists is returned when a category name is already taken.
	ErrNameExists = errors.New("category name already exists")

	// ErrInUse is returned when deleting a category that events or posts still use.
	ErrInUse = errors.New("category is in use: reassign or delete its events and posts first")
)
