// Package auth turns passwords into stored credentials and logins into
// bearer tokens for PlevenLab Core.
//
// It provides:
//   - HMAC-SHA512 credentials with a 128-byte random salt, verified in constant time
//   - Random secret generation against a ComplexityPolicy (crypto/rand only)
//   - HS256 bearer tokens whose subject is the user id, valid for seven days
//   - A one-time administrator bootstrap for an empty user store
//   - The SQLite user repository and the account service built on the above
//
// Failures from the core carry a Kind (see KindOf) so callers can tell a
// rejected request from corrupted stored data.
package auth
