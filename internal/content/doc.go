// Package content provides the public-facing PlevenLab content: categories,
// events and posts.
//
// Events and posts belong to a category and remember the account that
// created them. Input is validated with ozzo-validation before it reaches
// the SQLite repository; foreign key failures surface as
// ErrInvalidReference and ErrInUse.
//
// # Thread Safety
//
// Service and SQLiteRepository are safe for concurrent use from multiple
// goroutines.
package content
