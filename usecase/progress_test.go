package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/services"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleActivityRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 4))

	res, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)
	assert.True(t, res.Activity.Completed)
	assert.Equal(t, 1, res.Route.CompletedActivities)
	assert.Equal(t, 20, res.Delta)
	assert.Equal(t, 20, res.User.Points)

	res, err = f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)
	assert.False(t, res.Activity.Completed)
	assert.Equal(t, 0, res.Route.CompletedActivities)
	assert.Equal(t, -20, res.Delta)
	assert.Equal(t, 0, res.User.Points)

	stored, err := f.store.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Points)
	assert.Equal(t, 0, stored.Routes[0].CompletedActivities)
	assert.False(t, stored.Routes[0].Activities[0].Completed)

	assert.Equal(t, []string{
		services.EventUserRegistered,
		services.EventRouteCreated,
		services.EventActivityToggled,
		services.EventActivityToggled,
	}, f.events.Types())
}

func TestToggleActivityFocusBonus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Física", model.DifficultyHard, 2))
	_, err := f.progress.AddPoints(ctx, "ana@x.com", 7)
	require.NoError(t, err)

	res, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 2, 30)
	require.NoError(t, err)
	assert.Equal(t, 35, res.Delta)
	assert.Equal(t, 35, res.Activity.AwardedPoints)
	assert.Equal(t, 42, res.User.Points)

	// un-completing takes back the bonus too, whatever the minutes now
	res, err = f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, -35, res.Delta)
	assert.Equal(t, 0, res.Activity.AwardedPoints)
	assert.Equal(t, 7, res.User.Points)
}

func TestToggleActivityClamp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Química", model.DifficultyEasy, 1))

	_, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)

	spent := 0
	_, err = f.progress.ApplyPatch(ctx, "ana@x.com", model.UserPatch{Points: &spent})
	require.NoError(t, err)

	res, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.User.Points)
	assert.Equal(t, 0, res.Delta)
}

// An activity that arrives already completed (imported record, or a
// save-user-data patch) with fewer points on the user than its award: the
// clamp swallows the first revocation, so two toggles end above the start.
func TestToggleActivityCompletedBeforeEnoughPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")

	r := studyRoute("r1", "Álgebra", model.DifficultyMedium, 1)
	r.Activities[0].Completed = true
	routes := []model.Route{r}
	_, err := f.progress.ApplyPatch(ctx, "ana@x.com", model.UserPatch{Routes: &routes})
	require.NoError(t, err)

	res, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)
	assert.False(t, res.Activity.Completed)
	assert.Equal(t, 0, res.Delta)
	assert.Equal(t, 0, res.User.Points)

	res, err = f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)
	assert.True(t, res.Activity.Completed)
	assert.Equal(t, 20, res.Delta)
	assert.Equal(t, 20, res.User.Points)
}

func TestToggleActivityWithStalledPublisher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 1))
	f.progress = NewProgressService(f.store, DefaultPointsPolicy(), stalledPublisher{})

	start := time.Now()
	res, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 4*services.PublishTimeout)
	assert.Equal(t, 20, res.User.Points)

	stored, err := f.store.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Points, "the toggle is saved whatever the broker does")
}

func TestToggleActivityWithoutClamp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	policy := DefaultPointsPolicy()
	policy.ClampAtZero = false
	f.progress = NewProgressService(f.store, policy, nil)

	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Química", model.DifficultyEasy, 1))

	_, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)
	u, err := f.progress.AddPoints(ctx, "ana@x.com", -10)
	require.NoError(t, err)
	require.Equal(t, 0, u.Points)

	res, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, -10, res.User.Points)
}

func TestToggleActivityNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 2))

	_, err := f.progress.ToggleActivity(ctx, "ana@x.com", "nope", 1, 0)
	assert.ErrorIs(t, err, model.ErrRouteNotFound)

	_, err = f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 9, 0)
	assert.ErrorIs(t, err, model.ErrActivityNotFound)

	_, err = f.progress.ToggleActivity(ctx, "ghost@x.com", "r1", 1, 0)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestAddPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")

	u, err := f.progress.AddPoints(ctx, "ana@x.com", 25)
	require.NoError(t, err)
	assert.Equal(t, 25, u.Points)

	u, err = f.progress.AddPoints(ctx, "ana@x.com", -40)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Points)

	_, err = f.progress.AddPoints(ctx, "ghost@x.com", 5)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestApplyPatchReplacesNotesExactly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 3))
	_, err := f.notes.SaveNote(ctx, "ana@x.com", "r1", 1, "old note")
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	notes := []model.Note{
		{Key: "r1_2", Content: "second", SavedAt: at},
		{Key: "r1_3", Content: "third", SavedAt: at.Add(time.Minute)},
	}
	merged, err := f.progress.ApplyPatch(ctx, "ana@x.com", model.UserPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, merged.Notes)

	stored, err := f.store.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, notes, stored.Notes)
	assert.Equal(t, "Ana", stored.Name, "fields outside the patch stay")
	assert.Len(t, stored.Routes, 1)
}

func TestApplyPatchFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 2))

	t.Run("RoutesAreRecounted", func(t *testing.T) {
		r := studyRoute("r2", "Geometria", model.DifficultyHard, 3)
		r.Activities[0].Completed = true
		r.Activities[2].Completed = true
		r.CompletedActivities = 99
		routes := []model.Route{r}

		merged, err := f.progress.ApplyPatch(ctx, "ana@x.com", model.UserPatch{Routes: &routes})
		require.NoError(t, err)
		require.Len(t, merged.Routes, 1)
		assert.Equal(t, "r2", merged.Routes[0].ID)
		assert.Equal(t, 2, merged.Routes[0].CompletedActivities)
	})

	t.Run("NameAndPoints", func(t *testing.T) {
		name, points := " Ana Maria ", 120
		merged, err := f.progress.ApplyPatch(ctx, "ana@x.com", model.UserPatch{Name: &name, Points: &points})
		require.NoError(t, err)
		assert.Equal(t, "Ana Maria", merged.Name)
		assert.Equal(t, 120, merged.Points)
		assert.Len(t, merged.Routes, 1)
	})

	t.Run("Empty", func(t *testing.T) {
		before, err := f.store.FindByEmail(ctx, "ana@x.com")
		require.NoError(t, err)
		merged, err := f.progress.ApplyPatch(ctx, "ana@x.com", model.UserPatch{})
		require.NoError(t, err)
		assert.Equal(t, before, merged)
	})

	t.Run("Rejected", func(t *testing.T) {
		blank, negative := "  ", -1
		dupRoutes := []model.Route{{ID: "x"}, {ID: "x"}}
		dupNotes := []model.Note{{Key: "r1_1"}, {Key: "r1_1"}}
		dupActivities := []model.Route{{ID: "r1", Activities: []model.Activity{{ID: 1}, {ID: 1}}}}

		for name, patch := range map[string]model.UserPatch{
			"blank name":         {Name: &blank},
			"negative points":    {Points: &negative},
			"duplicate route":    {Routes: &dupRoutes},
			"duplicate note":     {Notes: &dupNotes},
			"duplicate activity": {Routes: &dupActivities},
		} {
			_, err := f.progress.ApplyPatch(ctx, "ana@x.com", patch)
			assert.ErrorIs(t, err, model.ErrInvalidPatch, name)
		}

		stored, err := f.store.FindByEmail(ctx, "ana@x.com")
		require.NoError(t, err)
		require.Len(t, stored.Routes, 1)
		assert.Len(t, stored.Routes[0].Activities, 3, "a rejected patch leaves the record alone")
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := f.progress.ApplyPatch(ctx, "ghost@x.com", model.UserPatch{})
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})
}

func TestAddRoute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")

	generated := model.Route{
		Title:   "Biologia celular",
		Subject: "Biologia",
		Activities: []model.Activity{
			{Title: "Mitose", Difficulty: "medio", Completed: true, AwardedPoints: 20},
			{Title: "Meiose"},
		},
		CompletedActivities: 1,
	}

	created, err := f.progress.AddRoute(ctx, "ana@x.com", generated)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, 0, created.CompletedActivities)

	want := []model.Activity{
		{ID: 1, Title: "Mitose", Difficulty: "medio", Exercises: []string{}},
		{ID: 2, Title: "Meiose", Difficulty: model.DifficultyEasy, Exercises: []string{}},
	}
	if diff := cmp.Diff(want, created.Activities, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}

	t.Run("DuplicateID", func(t *testing.T) {
		_, err := f.progress.AddRoute(ctx, "ana@x.com", model.Route{ID: created.ID, Title: "again"})
		assert.ErrorIs(t, err, model.ErrDuplicateRoute)
	})

	t.Run("MissingTitle", func(t *testing.T) {
		_, err := f.progress.AddRoute(ctx, "ana@x.com", model.Route{})
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestGetAndDeleteRoute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com")
	f.addRoute(t, "ana@x.com", studyRoute("r1", "Álgebra", model.DifficultyMedium, 3))
	f.addRoute(t, "ana@x.com", studyRoute("r1_x", "Trigonometria", model.DifficultyEasy, 1))

	_, err := f.progress.ToggleActivity(ctx, "ana@x.com", "r1", 1, 0)
	require.NoError(t, err)

	rp, err := f.progress.GetRoute(ctx, "ana@x.com", "r1")
	require.NoError(t, err)
	assert.Equal(t, 33, rp.Progress)
	assert.Equal(t, "Álgebra", rp.Title)

	_, err = f.notes.SaveNote(ctx, "ana@x.com", "r1", 2, "route note")
	require.NoError(t, err)
	_, err = f.notes.SaveNote(ctx, "ana@x.com", "r1_x", 1, "other route note")
	require.NoError(t, err)

	u, err := f.progress.DeleteRoute(ctx, "ana@x.com", "r1")
	require.NoError(t, err)
	require.Len(t, u.Routes, 1)
	assert.Equal(t, "r1_x", u.Routes[0].ID)
	require.Len(t, u.Notes, 1)
	assert.Equal(t, "r1_x_1", u.Notes[0].Key)
	assert.Equal(t, 20, u.Points, "earned points are kept")

	_, err = f.progress.GetRoute(ctx, "ana@x.com", "r1")
	assert.ErrorIs(t, err, model.ErrRouteNotFound)
	_, err = f.progress.DeleteRoute(ctx, "ana@x.com", "r1")
	assert.ErrorIs(t, err, model.ErrRouteNotFound)
}
