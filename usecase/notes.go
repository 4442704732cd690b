package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/repository"
	"github.com/dododo1295/studyroute/services"
	"github.com/dododo1295/studyroute/utils"
)

// NotesService keeps one free-text note per activity, stored on the user
// record under the key routeId_activityId.
type NotesService struct {
	store  repository.UserStore
	events services.Publisher
	now    func() time.Time
}

func NewNotesService(store repository.UserStore, events services.Publisher) *NotesService {
	if events == nil {
		events = services.NoopPublisher{}
	}
	return &NotesService{store: store, events: events, now: time.Now}
}

// SaveNote drops any note under the same key and appends the new content.
func (s *NotesService) SaveNote(ctx context.Context, email, routeID string, activityID int, content string) (*model.Note, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := requireActivity(user, routeID, activityID); err != nil {
		return nil, err
	}

	key := model.NoteKey(routeID, activityID)
	note := model.Note{Key: key, Content: content, SavedAt: s.now().UTC()}
	user.Notes = append(withoutNote(user.Notes, key), note)

	if _, err := s.store.Replace(ctx, user); err != nil {
		return nil, err
	}

	utils.TrackNoteOperation("save")
	services.PublishQuietly(ctx, s.events, services.NewEvent(services.EventNoteSaved, user.Email, map[string]interface{}{
		"key":    key,
		"length": len(content),
	}))
	return &note, nil
}

func (s *NotesService) DeleteNote(ctx context.Context, email, routeID string, activityID int) error {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	key := model.NoteKey(routeID, activityID)
	if user.FindNote(key) < 0 {
		return model.ErrNoteNotFound
	}
	user.Notes = withoutNote(user.Notes, key)

	if _, err := s.store.Replace(ctx, user); err != nil {
		return err
	}
	utils.TrackNoteOperation("delete")
	return nil
}

// ListNotes joins notes with their route and activity titles, newest first.
// Blank notes and notes whose activity no longer exists are skipped. A
// non-empty query keeps entries whose titles or content contain it, ignoring case.
func (s *NotesService) ListNotes(ctx context.Context, email, query string) ([]model.NoteEntry, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]model.Note, len(user.Notes))
	for _, n := range user.Notes {
		byKey[n.Key] = n
	}

	q := strings.ToLower(strings.TrimSpace(query))
	entries := []model.NoteEntry{}
	for _, r := range user.Routes {
		for _, a := range r.Activities {
			n, ok := byKey[model.NoteKey(r.ID, a.ID)]
			if !ok || strings.TrimSpace(n.Content) == "" {
				continue
			}
			entry := model.NoteEntry{
				RouteID:       r.ID,
				ActivityID:    a.ID,
				RouteTitle:    r.Title,
				ActivityTitle: a.Title,
				Content:       n.Content,
				SavedAt:       n.SavedAt,
			}
			if q != "" && !matches(entry, q) {
				continue
			}
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SavedAt.After(entries[j].SavedAt)
	})

	utils.TrackNoteOperation("list")
	return entries, nil
}

func matches(e model.NoteEntry, q string) bool {
	return strings.Contains(strings.ToLower(e.RouteTitle), q) ||
		strings.Contains(strings.ToLower(e.ActivityTitle), q) ||
		strings.Contains(strings.ToLower(e.Content), q)
}

func withoutNote(notes []model.Note, key string) []model.Note {
	kept := make([]model.Note, 0, len(notes)+1)
	for _, n := range notes {
		if n.Key != key {
			kept = append(kept, n)
		}
	}
	return kept
}

func requireActivity(user *model.User, routeID string, activityID int) error {
	ri := user.FindRoute(routeID)
	if ri < 0 {
		return model.ErrRouteNotFound
	}
	if user.Routes[ri].FindActivity(activityID) < 0 {
		return model.ErrActivityNotFound
	}
	return nil
}
