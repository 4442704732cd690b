package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/dododo1295/studyroute/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func TestSaveNoteKeepsOnePerKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 4))

	_, err := f.notes.SaveNote(ctx, "ana@x.com", "r1", 3, "first draft")
	require.NoError(t, err)
	note, err := f.notes.SaveNote(ctx, "ana@x.com", "r1", 3, "second draft")
	require.NoError(t, err)
	assert.Equal(t, "r1_3", note.Key)

	stored, err := f.store.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Len(t, stored.Notes, 1)
	assert.Equal(t, "r1_3", stored.Notes[0].Key)
	assert.Equal(t, "second draft", stored.Notes[0].Content)
}

func TestSaveNoteRequiresActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 1))

	_, err := f.notes.SaveNote(ctx, "ana@x.com", "r9", 1, "x")
	assert.ErrorIs(t, err, model.ErrRouteNotFound)
	_, err = f.notes.SaveNote(ctx, "ana@x.com", "r1", 2, "x")
	assert.ErrorIs(t, err, model.ErrActivityNotFound)
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 2))

	_, err := f.notes.SaveNote(ctx, "ana@x.com", "r1", 1, "keep")
	require.NoError(t, err)
	_, err = f.notes.SaveNote(ctx, "ana@x.com", "r1", 2, "drop")
	require.NoError(t, err)

	require.NoError(t, f.notes.DeleteNote(ctx, "ana@x.com", "r1", 2))
	assert.ErrorIs(t, f.notes.DeleteNote(ctx, "ana@x.com", "r1", 2), model.ErrNoteNotFound)

	stored, err := f.store.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Len(t, stored.Notes, 1)
	assert.Equal(t, "r1_1", stored.Notes[0].Key)
}

func TestListNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notes.now = stepClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	f.register(t, "Ana", "ana@x.com")

	algebra := studyRoute("r1", "Álgebra", model.DifficultyMedium, 2)
	algebra.Activities[1].Title = "Equações"
	f.addRoute(t, "ana@x.com", algebra)
	f.addRoute(t, "ana@x.com", studyRoute("r2", "História", model.DifficultyEasy, 1))

	for _, n := range []struct {
		route    string
		activity int
		content  string
	}{
		{"r1", 1, "Revisar frações"},
		{"r2", 1, "Revolução francesa"},
		{"r1", 2, "   "},
		{"r1", 2, "Bhaskara"},
	} {
		_, err := f.notes.SaveNote(ctx, "ana@x.com", n.route, n.activity, n.content)
		require.NoError(t, err)
	}

	// an orphaned note left behind by an older client
	orphan := append([]model.Note(nil), mustUser(t, f, "ana@x.com").Notes...)
	orphan = append(orphan, model.Note{Key: "gone_7", Content: "orphan", SavedAt: time.Now()})
	_, err := f.progress.ApplyPatch(ctx, "ana@x.com", model.UserPatch{Notes: &orphan})
	require.NoError(t, err)

	t.Run("All", func(t *testing.T) {
		entries, err := f.notes.ListNotes(ctx, "ana@x.com", "")
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, "Bhaskara", entries[0].Content)
		assert.Equal(t, "Equações", entries[0].ActivityTitle)
		assert.Equal(t, "Álgebra", entries[0].RouteTitle)
		assert.Equal(t, "Revolução francesa", entries[1].Content)
		assert.Equal(t, "r2", entries[1].RouteID)
		assert.Equal(t, "Revisar frações", entries[2].Content)
		assert.Equal(t, 1, entries[2].ActivityID)
	})

	t.Run("FilterIgnoresCase", func(t *testing.T) {
		byContent, err := f.notes.ListNotes(ctx, "ana@x.com", "REV")
		require.NoError(t, err)
		require.Len(t, byContent, 2)

		byRoute, err := f.notes.ListNotes(ctx, "ana@x.com", "história")
		require.NoError(t, err)
		require.Len(t, byRoute, 1)
		assert.Equal(t, "r2", byRoute[0].RouteID)

		none, err := f.notes.ListNotes(ctx, "ana@x.com", "orphan")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func mustUser(t *testing.T, f *fixture, email string) *model.User {
	t.Helper()
	u, err := f.store.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}
