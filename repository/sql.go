package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/utils"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore maps a user onto users, routes, activities and notes rows. Replace
// rewrites the child rows inside one transaction.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// OpenSQLStore connects with database/sql driver "pgx" or "sqlite".
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, model.NewPersistenceError(driver, "connect", err)
	}
	if driver == "sqlite" {
		// one connection keeps :memory: databases alive and serializes sqlite writers
		db.SetMaxOpenConns(1)
	}
	return NewSQLStore(db), nil
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, driver: db.DriverName()}
}

type userRow struct {
	RowID     string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Password  string    `db:"password"`
	Points    int       `db:"points"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type routeRow struct {
	RowID               string    `db:"id"`
	RouteKey            string    `db:"route_key"`
	Title               string    `db:"title"`
	Subject             string    `db:"subject"`
	DailyTime           string    `db:"daily_time"`
	Dedication          string    `db:"dedication"`
	Description         string    `db:"description"`
	CompletedActivities int       `db:"completed_activities"`
	CreatedAt           time.Time `db:"created_at"`
}

type activityRow struct {
	RouteRowID    string `db:"route_id"`
	ActivityID    int    `db:"activity_id"`
	Title         string `db:"title"`
	Description   string `db:"description"`
	Technique     string `db:"technique"`
	Difficulty    string `db:"difficulty"`
	Duration      string `db:"duration"`
	Content       string `db:"content"`
	Exercises     string `db:"exercises"`
	Completed     bool   `db:"completed"`
	AwardedPoints int    `db:"awarded_points"`
}

type noteRow struct {
	NoteKey string    `db:"note_key"`
	Content string    `db:"content"`
	SavedAt time.Time `db:"saved_at"`
}

func (s *SQLStore) timestampType() string {
	if s.driver == "sqlite" {
		return "TIMESTAMP"
	}
	return "TIMESTAMPTZ"
}

// Migrate creates the schema if it does not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	ts := s.timestampType()
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS routes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			route_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			daily_time TEXT NOT NULL DEFAULT '',
			dedication TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			completed_activities INTEGER NOT NULL DEFAULT 0,
			created_at ` + ts + ` NOT NULL,
			UNIQUE (user_id, route_key)
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			route_id TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
			activity_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			technique TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			exercises TEXT NOT NULL DEFAULT '[]',
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			awarded_points INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (route_id, activity_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			note_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			saved_at ` + ts + ` NOT NULL,
			PRIMARY KEY (user_id, note_key)
		)`,
		`CREATE INDEX IF NOT EXISTS routes_user_position ON routes (user_id, position)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return model.NewPersistenceError(s.driver, "migrate", err)
		}
	}
	utils.Logger().Info("sql schema ready", zap.String("driver", s.driver))
	return nil
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	timer := utils.TrackStoreOperation(s.driver, "find")
	defer timer.ObserveDuration()

	u, err := s.load(ctx, s.db, model.NormalizeEmail(email))
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, model.NewPersistenceError(s.driver, "find", err)
	}
	return u, err
}

func (s *SQLStore) Insert(ctx context.Context, user *model.User) (*model.User, error) {
	timer := utils.TrackStoreOperation(s.driver, "insert")
	defer timer.ObserveDuration()

	u := prepareInsert(user)
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, tx.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), u.Email); err != nil {
			return err
		}
		if count > 0 {
			return model.ErrDuplicateUser
		}

		rowID := uuid.New().String()
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO users (id, email, name, password, points, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			rowID, u.Email, u.Name, u.Password, u.Points, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return model.ErrDuplicateUser
			}
			return err
		}
		return s.writeChildren(ctx, tx, rowID, u)
	})
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUser) {
			return nil, err
		}
		return nil, model.NewPersistenceError(s.driver, "insert", err)
	}
	return u.Clone(), nil
}

func (s *SQLStore) Replace(ctx context.Context, user *model.User) (*model.User, error) {
	timer := utils.TrackStoreOperation(s.driver, "replace")
	defer timer.ObserveDuration()

	u := prepareReplace(user, nil)
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var row userRow
		if err := tx.GetContext(ctx, &row, tx.Rebind(`SELECT id, email, name, password, points, created_at, updated_at FROM users WHERE email = ?`), u.Email); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrUserNotFound
			}
			return err
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = row.CreatedAt
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET name = ?, password = ?, points = ?, updated_at = ? WHERE id = ?`),
			u.Name, u.Password, u.Points, u.UpdatedAt, row.RowID); err != nil {
			return err
		}

		deletes := []string{
			`DELETE FROM activities WHERE route_id IN (SELECT id FROM routes WHERE user_id = ?)`,
			`DELETE FROM routes WHERE user_id = ?`,
			`DELETE FROM notes WHERE user_id = ?`,
		}
		for _, q := range deletes {
			if _, err := tx.ExecContext(ctx, tx.Rebind(q), row.RowID); err != nil {
				return err
			}
		}
		return s.writeChildren(ctx, tx, row.RowID, u)
	})
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, model.NewPersistenceError(s.driver, "replace", err)
	}
	return u.Clone(), nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return model.NewPersistenceError(s.driver, "ping", s.db.PingContext(ctx))
}

func (s *SQLStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) writeChildren(ctx context.Context, tx *sqlx.Tx, userRowID string, u *model.User) error {
	insertRoute := tx.Rebind(`INSERT INTO routes (id, user_id, route_key, position, title, subject, daily_time, dedication, description, completed_activities, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insertActivity := tx.Rebind(`INSERT INTO activities (route_id, activity_id, position, title, description, technique, difficulty, duration, content, exercises, completed, awarded_points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insertNote := tx.Rebind(`INSERT INTO notes (user_id, note_key, position, content, saved_at) VALUES (?, ?, ?, ?, ?)`)

	for i, r := range u.Routes {
		routeRowID := uuid.New().String()
		if _, err := tx.ExecContext(ctx, insertRoute, routeRowID, userRowID, r.ID, i, r.Title, r.Subject, r.DailyTime,
			r.Dedication, r.Description, r.CompletedActivities, r.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("insert route %q: %w", r.ID, err)
		}
		for j, a := range r.Activities {
			exercises, err := json.Marshal(nonNilStrings(a.Exercises))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, insertActivity, routeRowID, a.ID, j, a.Title, a.Description, a.Technique,
				string(a.Difficulty), a.Duration, a.Content, string(exercises), a.Completed, a.AwardedPoints); err != nil {
				return fmt.Errorf("insert activity %d of route %q: %w", a.ID, r.ID, err)
			}
		}
	}

	for i, n := range u.Notes {
		if _, err := tx.ExecContext(ctx, insertNote, userRowID, n.Key, i, n.Content, n.SavedAt.UTC()); err != nil {
			return fmt.Errorf("insert note %q: %w", n.Key, err)
		}
	}
	return nil
}

func (s *SQLStore) load(ctx context.Context, q sqlx.QueryerContext, email string) (*model.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, q, &row, s.db.Rebind(`SELECT id, email, name, password, points, created_at, updated_at FROM users WHERE email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:        row.Email,
		Email:     row.Email,
		Name:      row.Name,
		Password:  row.Password,
		Points:    row.Points,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Routes:    []model.Route{},
		Notes:     []model.Note{},
	}

	var routes []routeRow
	if err := sqlx.SelectContext(ctx, q, &routes, s.db.Rebind(`SELECT id, route_key, title, subject, daily_time, dedication, description, completed_activities, created_at
		FROM routes WHERE user_id = ? ORDER BY position`), row.RowID); err != nil {
		return nil, err
	}

	var activities []activityRow
	if err := sqlx.SelectContext(ctx, q, &activities, s.db.Rebind(`SELECT a.route_id, a.activity_id, a.title, a.description, a.technique, a.difficulty, a.duration, a.content, a.exercises, a.completed, a.awarded_points
		FROM activities a JOIN routes r ON r.id = a.route_id WHERE r.user_id = ? ORDER BY r.position, a.position`), row.RowID); err != nil {
		return nil, err
	}

	byRoute := make(map[string][]model.Activity, len(routes))
	for _, a := range activities {
		var exercises []string
		if strings.TrimSpace(a.Exercises) != "" {
			if err := json.Unmarshal([]byte(a.Exercises), &exercises); err != nil {
				return nil, fmt.Errorf("decode exercises: %w", err)
			}
		}
		byRoute[a.RouteRowID] = append(byRoute[a.RouteRowID], model.Activity{
			ID:            a.ActivityID,
			Title:         a.Title,
			Description:   a.Description,
			Technique:     a.Technique,
			Difficulty:    model.Difficulty(a.Difficulty),
			Duration:      a.Duration,
			Content:       a.Content,
			Exercises:     exercises,
			Completed:     a.Completed,
			AwardedPoints: a.AwardedPoints,
		})
	}

	for _, r := range routes {
		acts := byRoute[r.RowID]
		if acts == nil {
			acts = []model.Activity{}
		}
		u.Routes = append(u.Routes, model.Route{
			ID:                  r.RouteKey,
			Title:               r.Title,
			Subject:             r.Subject,
			DailyTime:           r.DailyTime,
			Dedication:          r.Dedication,
			Description:         r.Description,
			Activities:          acts,
			CompletedActivities: r.CompletedActivities,
			CreatedAt:           r.CreatedAt.UTC(),
		})
	}

	var notes []noteRow
	if err := sqlx.SelectContext(ctx, q, &notes, s.db.Rebind(`SELECT note_key, content, saved_at FROM notes WHERE user_id = ? ORDER BY position`), row.RowID); err != nil {
		return nil, err
	}
	for _, n := range notes {
		u.Notes = append(u.Notes, model.Note{Key: n.NoteKey, Content: n.Content, SavedAt: n.SavedAt.UTC()})
	}

	return u, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
