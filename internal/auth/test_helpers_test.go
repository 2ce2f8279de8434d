package auth

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// testSigningKey is a 32-byte HS256 secret for tests.
var testSigningKey = []byte("test-signing-key-32-bytes-long!!")

// testDB creates a temporary SQLite database with the users table applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	dbPath := filepath.Join(t.TempDir(), "auth-test.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	require.NoError(t, err, "opening test db")
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			email TEXT,
			password_hash BLOB NOT NULL,
			password_salt BLOB NOT NULL,
			created_at TEXT NOT NULL,
			last_login_at TEXT
		) STRICT;
	`
	_, err = db.Exec(migrationSQL)
	require.NoError(t, err, "applying users schema")

	return db
}

// seedTestUser inserts a user with the given password and returns it.
func seedTestUser(t *testing.T, db *sql.DB, name, password string) *User {
	t.Helper()

	cred, err := NewCredential(password)
	require.NoError(t, err, "deriving credential")

	repo := NewUserRepository(db)
	user := &User{
		Name:       name,
		Email:      name + "@example.com",
		Credential: cred,
	}
	require.NoError(t, repo.Create(t.Context(), user), "creating test user %s", name)
	return user
}

// testService returns a service backed by a fresh database.
func testService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	issuer, err := NewTokenIssuer(testSigningKey)
	require.NoError(t, err)
	db := testDB(t)
	return NewService(NewUserRepository(db), issuer), db
}
