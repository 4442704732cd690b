package model

import (
	"math"
	"strings"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Fácil"
	DifficultyMedium Difficulty = "Médio"
	DifficultyHard   Difficulty = "Difícil"
)

// Canonical maps loosely written tiers ("medio", "DIFICIL") onto the three
// known values. Anything unrecognised is treated as easy.
func (d Difficulty) Canonical() Difficulty {
	s := strings.ToLower(strings.TrimSpace(string(d)))
	s = strings.NewReplacer("á", "a", "é", "e", "í", "i").Replace(s)
	switch {
	case strings.HasPrefix(s, "dif"), s == "hard":
		return DifficultyHard
	case strings.HasPrefix(s, "med"), s == "medium":
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

type Activity struct {
	ID            int        `bson:"id" json:"id"`
	Title         string     `bson:"title" json:"title"`
	Description   string     `bson:"description" json:"description"`
	Technique     string     `bson:"technique" json:"technique"`
	Difficulty    Difficulty `bson:"difficulty" json:"difficulty"`
	Duration      string     `bson:"duration" json:"duration"`
	Content       string     `bson:"content" json:"content"`
	Exercises     []string   `bson:"exercises" json:"exercises"`
	Completed     bool       `bson:"completed" json:"completed"`
	AwardedPoints int        `bson:"awarded_points,omitempty" json:"awardedPoints,omitempty"` // points granted by the last completion
}

type Route struct {
	ID                  string     `bson:"id" json:"id"`
	Title               string     `bson:"title" json:"title"`
	Subject             string     `bson:"subject" json:"subject"`
	DailyTime           string     `bson:"daily_time" json:"dailyTime"`
	Dedication          string     `bson:"dedication" json:"dedication"`
	Description         string     `bson:"description" json:"description"`
	Activities          []Activity `bson:"activities" json:"activities"`
	CompletedActivities int        `bson:"completed_activities" json:"completedActivities"`
	CreatedAt           time.Time  `bson:"created_at" json:"createdAt"`
}

func (r Route) Clone() Route {
	cp := r
	if r.Activities != nil {
		cp.Activities = make([]Activity, len(r.Activities))
		for i, a := range r.Activities {
			cp.Activities[i] = a
			if a.Exercises != nil {
				cp.Activities[i].Exercises = append([]string(nil), a.Exercises...)
			}
		}
	}
	return cp
}

// FindActivity returns the index of the activity with the given id, or -1.
func (r *Route) FindActivity(activityID int) int {
	for i := range r.Activities {
		if r.Activities[i].ID == activityID {
			return i
		}
	}
	return -1
}

// CountCompleted counts activities whose completed flag is set.
func (r *Route) CountCompleted() int {
	n := 0
	for _, a := range r.Activities {
		if a.Completed {
			n++
		}
	}
	return n
}

// Recount realigns the completedActivities counter with the activity flags.
func (r *Route) Recount() {
	r.CompletedActivities = r.CountCompleted()
}

// ProgressPercentage is round(completed/total*100), 0 for an empty route.
func (r *Route) ProgressPercentage() int {
	if len(r.Activities) == 0 {
		return 0
	}
	return int(math.Round(float64(r.CountCompleted()) / float64(len(r.Activities)) * 100))
}
