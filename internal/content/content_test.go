package content

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plevenlab/plevenlab-core/internal/infrastructure/database"
	"github.com/plevenlab/plevenlab-core/migrations"
)

// testService opens a migrated database with one user and returns a service
// over it together with that user's id.
func testService(t *testing.T) (*Service, int64) {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{
		Path:        filepath.Join(t.TempDir(), "content.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Migrate(t.Context(), migrations.FS)
	require.NoError(t, err)

	result, err := db.Exec(`INSERT INTO users (name, email, password_hash, password_salt, created_at)
		VALUES ('editor', 'editor@plevenlab.org', zeroblob(64), zeroblob(128), '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)
	userID, err := result.LastInsertId()
	require.NoError(t, err)

	svc := NewService(NewSQLiteRepository(db.DB))
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return svc, userID
}

func createCategory(t *testing.T, svc *Service, name string) *Category {
	t.Helper()
	c, err := svc.CreateCategory(t.Context(), CategoryInput{Name: name, Color: "#1a2b3c"})
	require.NoError(t, err)
	return c
}

func TestCategoryInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      CategoryInput
		wantErr bool
	}{
		{"valid", CategoryInput{Name: "Workshops", Color: "#A0b1C2"}, false},
		{"missing name", CategoryInput{Color: "#000000"}, true},
		{"missing color", CategoryInput{Name: "Talks"}, true},
		{"short color", CategoryInput{Name: "Talks", Color: "#fff"}, true},
		{"color without hash", CategoryInput{Name: "Talks", Color: "ffffff"}, true},
		{"long name", CategoryInput{Name: string(make([]byte, maxNameLength+1)), Color: "#ffffff"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEventInput_Validate(t *testing.T) {
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	valid := EventInput{CategoryID: 1, Title: "Open lab night", StartDate: start, EndDate: start.Add(2 * time.Hour)}

	tests := []struct {
		name   string
		mutate func(*EventInput)
		field  string
	}{
		{"valid", func(*EventInput) {}, ""},
		{"same start and end", func(in *EventInput) { in.EndDate = in.StartDate }, ""},
		{"end before start", func(in *EventInput) { in.EndDate = start.Add(-time.Minute) }, "end_date"},
		{"missing category", func(in *EventInput) { in.CategoryID = 0 }, "category_id"},
		{"missing title", func(in *EventInput) { in.Title = "" }, "title"},
		{"missing start", func(in *EventInput) { in.StartDate = time.Time{} }, "start_date"},
		{"bad latitude", func(in *EventInput) { in.Location = &Location{Lat: 91, Lng: 24.6} }, "location"},
		{"good location", func(in *EventInput) { in.Location = &Location{Name: "Pleven", Lat: 43.42, Lng: 24.61} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			err := in.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validation.Errors
			require.True(t, errors.As(err, &verrs), "error %v is not validation.Errors", err)
			assert.Contains(t, verrs, tt.field)
		})
	}
}

func TestService_Categories(t *testing.T) {
	svc, _ := testService(t)
	ctx := t.Context()

	workshops := createCategory(t, svc, "Workshops")
	createCategory(t, svc, "Announcements")
	assert.NotZero(t, workshops.ID)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Announcements", list[0].Name, "ordered by name")

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Workshops", Color: "#000000"})
	assert.ErrorIs(t, err, ErrNameExists)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Bad", Color: "red"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.UpdateCategory(ctx, workshops.ID, CategoryInput{Name: "Hands-on", Color: "#ff0000"})
	require.NoError(t, err)
	got, err := svc.GetCategory(ctx, workshops.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = svc.UpdateCategory(ctx, 999, CategoryInput{Name: "Ghost", Color: "#ffffff"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteCategory(ctx, workshops.ID))
	_, err = svc.GetCategory(ctx, workshops.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, workshops.ID), ErrNotFound)
}

func TestService_Events(t *testing.T) {
	svc, userID := testService(t)
	ctx := t.Context()
	cat := createCategory(t, svc, "Meetups")
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

	ev, err := svc.CreateEvent(ctx, userID, EventInput{
		CategoryID: cat.ID,
		Title:      "Soldering 101",
		StartDate:  start,
		EndDate:    start.Add(3 * time.Hour),
		Location:   &Location{Name: "PlevenLab", Lat: 43.4170, Lng: 24.6067},
	})
	require.NoError(t, err)
	require.NotNil(t, ev.CreatedBy)
	assert.Equal(t, userID, *ev.CreatedBy)

	got, err := svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	later, err := svc.CreateEvent(ctx, userID, EventInput{
		CategoryID: cat.ID, Title: "3D printing", StartDate: start.AddDate(0, 1, 0), EndDate: start.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Nil(t, later.Location)

	all, err := svc.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ev.ID, all[0].ID, "ordered by start date")

	july, err := svc.ListEvents(ctx, EventFilter{From: start.AddDate(0, 0, 15)})
	require.NoError(t, err)
	require.Len(t, july, 1)
	assert.Equal(t, later.ID, july[0].ID)

	_, err = svc.CreateEvent(ctx, userID, EventInput{CategoryID: 404, Title: "x", StartDate: start, EndDate: start})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = svc.CreateEvent(ctx, userID, EventInput{CategoryID: cat.ID, Title: "x", StartDate: start, EndDate: start.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.UpdateEvent(ctx, ev.ID, EventInput{
		CategoryID: cat.ID, Title: "Soldering 102", StartDate: start, EndDate: start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Soldering 102", updated.Title)
	assert.Nil(t, updated.Location)
	assert.Equal(t, userID, *updated.CreatedBy, "creator is kept")

	assert.ErrorIs(t, svc.DeleteCategory(ctx, cat.ID), ErrInUse)

	require.NoError(t, svc.DeleteEvent(ctx, ev.ID))
	_, err = svc.GetEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdateEvent(ctx, ev.ID, EventInput{CategoryID: cat.ID, Title: "y", StartDate: start, EndDate: start})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Posts(t *testing.T) {
	svc, userID := testService(t)
	ctx := t.Context()
	cat := createCategory(t, svc, "News")
	hidden := false

	visible, err := svc.CreatePost(ctx, userID, PostInput{Title: "We moved", Body: "New address.", CategoryID: cat.ID})
	require.NoError(t, err)
	assert.True(t, visible.IsVisible, "visible by default")

	draft, err := svc.CreatePost(ctx, userID, PostInput{Title: "Draft", Body: "WIP", CategoryID: cat.ID, IsVisible: &hidden})
	require.NoError(t, err)
	assert.False(t, draft.IsVisible)

	public, err := svc.ListPosts(ctx, PostFilter{VisibleOnly: true})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, visible.ID, public[0].ID)

	all, err := svc.ListPosts(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.GetPost(ctx, draft.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := svc.GetPost(ctx, draft.ID, false)
	require.NoError(t, err)
	assert.Equal(t, draft, got)

	// Omitted visibility leaves it unchanged.
	updated, err := svc.UpdatePost(ctx, draft.ID, PostInput{Title: "Ready", Body: "Done", CategoryID: cat.ID})
	require.NoError(t, err)
	assert.False(t, updated.IsVisible)

	_, err = svc.CreatePost(ctx, userID, PostInput{Title: "t", Body: "b", CategoryID: 404})
	assert.ErrorIs(t, err, ErrInvalidReference)
	_, err = svc.CreatePost(ctx, userID, PostInput{Title: "t", CategoryID: cat.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.DeletePost(ctx, visible.ID))
	assert.ErrorIs(t, svc.DeletePost(ctx, visible.ID), ErrNotFound)
}

func TestService_DeleteCategoryInUseByPost(t *testing.T) {
	svc, userID := testService(t)
	ctx := t.Context()
	cat := createCategory(t, svc, "Announcements")

	post, err := svc.CreatePost(ctx, userID, PostInput{Title: "Open day", Body: "Saturday", CategoryID: cat.ID})
	require.NoError(t, err)

	err = svc.DeleteCategory(ctx, cat.ID)
	require.ErrorIs(t, err, ErrInUse)
	assert.NotErrorIs(t, err, ErrInvalidReference)

	_, err = svc.GetCategory(ctx, cat.ID)
	require.NoError(t, err, "category survives the blocked delete")

	require.NoError(t, svc.DeletePost(ctx, post.ID))
	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
}
