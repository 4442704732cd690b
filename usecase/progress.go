package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/repository"
	"github.com/dododo1295/studyroute/services"
	"github.com/dododo1295/studyroute/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressService applies every progress mutation as read record, change in
// memory, write record.
type ProgressService struct {
	store  repository.UserStore
	policy PointsPolicy
	events services.Publisher
	now    func() time.Time
}

func NewProgressService(store repository.UserStore, policy PointsPolicy, events services.Publisher) *ProgressService {
	if events == nil {
		events = services.NoopPublisher{}
	}
	return &ProgressService{store: store, policy: policy, events: events, now: time.Now}
}

func (s *ProgressService) Policy() PointsPolicy { return s.policy }

// ToggleResult reports the state after a toggle and the points actually applied.
type ToggleResult struct {
	User     *model.User    `json:"user"`
	Route    model.Route    `json:"route"`
	Activity model.Activity `json:"activity"`
	Delta    int            `json:"delta"`
}

// RouteProgress is a route with its completion percentage.
type RouteProgress struct {
	model.Route
	Progress int `json:"progress"`
}

func (s *ProgressService) Get(ctx context.Context, email string) (*model.User, error) {
	return s.store.FindByEmail(ctx, email)
}

// ApplyPatch replaces each non-nil field of patch wholesale. Nothing is deep merged.
func (s *ProgressService) ApplyPatch(ctx context.Context, email string, patch model.UserPatch) (*model.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return user, nil
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be blank", model.ErrInvalidPatch)
		}
		user.Name = name
	}

	if patch.Points != nil {
		if *patch.Points < 0 && s.policy.ClampAtZero {
			return nil, fmt.Errorf("%w: points must not be negative", model.ErrInvalidPatch)
		}
		user.Points = *patch.Points
	}

	if patch.Routes != nil {
		routes := make([]model.Route, len(*patch.Routes))
		seen := make(map[string]bool, len(routes))
		for i, r := range *patch.Routes {
			if seen[r.ID] {
				return nil, fmt.Errorf("%w: route %q appears twice", model.ErrInvalidPatch, r.ID)
			}
			seen[r.ID] = true
			ids := make(map[int]bool, len(r.Activities))
			for _, a := range r.Activities {
				if ids[a.ID] {
					return nil, fmt.Errorf("%w: activity %d appears twice in route %q", model.ErrInvalidPatch, a.ID, r.ID)
				}
				ids[a.ID] = true
			}
			routes[i] = r.Clone()
			routes[i].Recount()
		}
		user.Routes = routes
	}

	if patch.Notes != nil {
		notes := make([]model.Note, len(*patch.Notes))
		seen := make(map[string]bool, len(notes))
		for i, n := range *patch.Notes {
			if seen[n.Key] {
				return nil, fmt.Errorf("%w: note %q appears twice", model.ErrInvalidPatch, n.Key)
			}
			seen[n.Key] = true
			notes[i] = n
		}
		user.Notes = notes
	}

	return s.store.Replace(ctx, user)
}

// AddPoints adds delta to the total, clamped at zero under the default policy.
func (s *ProgressService) AddPoints(ctx context.Context, email string, delta int) (*model.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	user.Points = s.policy.Apply(user.Points, delta)

	saved, err := s.store.Replace(ctx, user)
	if err != nil {
		return nil, err
	}
	utils.TrackPoints(delta)
	return saved, nil
}

// ToggleActivity flips one activity and settles its points. Completing awards
// the tier value plus any focus bonus; un-completing takes back exactly what
// was awarded, so two toggles leave the total where it started.
func (s *ProgressService) ToggleActivity(ctx context.Context, email, routeID string, activityID, studyMinutes int) (*ToggleResult, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	ri := user.FindRoute(routeID)
	if ri < 0 {
		return nil, model.ErrRouteNotFound
	}
	route := &user.Routes[ri]

	ai := route.FindActivity(activityID)
	if ai < 0 {
		return nil, model.ErrActivityNotFound
	}
	activity := &route.Activities[ai]

	var delta int
	if activity.Completed {
		delta = -s.policy.Revocation(*activity)
		activity.Completed = false
		activity.AwardedPoints = 0
	} else {
		delta = s.policy.CompletionAward(*activity, studyMinutes)
		activity.Completed = true
		activity.AwardedPoints = delta
	}
	route.Recount()

	before := user.Points
	user.Points = s.policy.Apply(before, delta)
	applied := user.Points - before

	saved, err := s.store.Replace(ctx, user)
	if err != nil {
		return nil, err
	}

	savedRoute := saved.Routes[saved.FindRoute(routeID)]
	savedActivity := savedRoute.Activities[savedRoute.FindActivity(activityID)]

	utils.TrackActivityToggle(savedActivity.Completed, string(savedActivity.Difficulty.Canonical()))
	utils.TrackPoints(applied)
	utils.Logger().Debug("activity toggled",
		zap.String("email", saved.Email),
		zap.String("route", routeID),
		zap.Int("activity", activityID),
		zap.Bool("completed", savedActivity.Completed),
		zap.Int("delta", applied))

	services.PublishQuietly(ctx, s.events, services.NewEvent(services.EventActivityToggled, saved.Email, map[string]interface{}{
		"routeId":    routeID,
		"activityId": activityID,
		"completed":  savedActivity.Completed,
		"delta":      applied,
		"points":     saved.Points,
	}))

	return &ToggleResult{User: saved, Route: savedRoute, Activity: savedActivity, Delta: applied}, nil
}

// AddRoute appends a generated route. Every activity starts incomplete.
func (s *ProgressService) AddRoute(ctx context.Context, email string, route model.Route) (*model.Route, error) {
	if strings.TrimSpace(route.Title) == "" {
		return nil, fmt.Errorf("%w: route title is required", model.ErrInvalidInput)
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	r := route.Clone()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if user.FindRoute(r.ID) >= 0 {
		return nil, model.ErrDuplicateRoute
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if r.Activities == nil {
		r.Activities = []model.Activity{}
	}
	normalizeActivities(r.Activities)
	r.Recount()

	user.Routes = append(user.Routes, r)
	saved, err := s.store.Replace(ctx, user)
	if err != nil {
		return nil, err
	}

	created := saved.Routes[saved.FindRoute(r.ID)]
	services.PublishQuietly(ctx, s.events, services.NewEvent(services.EventRouteCreated, saved.Email, map[string]interface{}{
		"routeId":    created.ID,
		"title":      created.Title,
		"activities": len(created.Activities),
	}))
	return &created, nil
}

// normalizeActivities resets completion and numbers activities 1..n when
// any id is missing or repeated.
func normalizeActivities(acts []model.Activity) {
	renumber := false
	seen := make(map[int]bool, len(acts))
	for i := range acts {
		a := &acts[i]
		a.Completed = false
		a.AwardedPoints = 0
		if a.Difficulty == "" {
			a.Difficulty = model.DifficultyEasy
		}
		if a.Exercises == nil {
			a.Exercises = []string{}
		}
		if a.ID <= 0 || seen[a.ID] {
			renumber = true
		}
		seen[a.ID] = true
	}
	if renumber {
		for i := range acts {
			acts[i].ID = i + 1
		}
	}
}

func (s *ProgressService) GetRoute(ctx context.Context, email, routeID string) (*RouteProgress, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	ri := user.FindRoute(routeID)
	if ri < 0 {
		return nil, model.ErrRouteNotFound
	}
	r := user.Routes[ri]
	return &RouteProgress{Route: r, Progress: r.ProgressPercentage()}, nil
}

// DeleteRoute removes the route together with the notes of its activities.
// Points already earned are kept.
func (s *ProgressService) DeleteRoute(ctx context.Context, email, routeID string) (*model.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	ri := user.FindRoute(routeID)
	if ri < 0 {
		return nil, model.ErrRouteNotFound
	}

	removed := user.Routes[ri]
	owned := make(map[string]bool, len(removed.Activities))
	for _, a := range removed.Activities {
		owned[model.NoteKey(removed.ID, a.ID)] = true
	}

	user.Routes = append(user.Routes[:ri], user.Routes[ri+1:]...)
	notes := user.Notes[:0]
	for _, n := range user.Notes {
		if !owned[n.Key] {
			notes = append(notes, n)
		}
	}
	user.Notes = notes

	return s.store.Replace(ctx, user)
}
