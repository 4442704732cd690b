package usecase

import (
	"context"
	"math"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/repository"
)

type StatsService struct {
	store repository.UserStore
}

func NewStatsService(store repository.UserStore) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) Dashboard(ctx context.Context, email string) (*model.DashboardStats, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	stats := Summarize(user)
	return &stats, nil
}

// Summarize computes dashboard figures. AverageProgress is the rounded mean of
// the per-route percentages, 0 without routes.
func Summarize(user *model.User) model.DashboardStats {
	stats := model.DashboardStats{
		Points: user.Points,
		Routes: len(user.Routes),
	}

	sum := 0
	for i := range user.Routes {
		r := &user.Routes[i]
		stats.TotalActivities += len(r.Activities)
		stats.CompletedActivities += r.CountCompleted()
		sum += r.ProgressPercentage()
	}
	if len(user.Routes) > 0 {
		stats.AverageProgress = int(math.Round(float64(sum) / float64(len(user.Routes))))
	}

	for _, n := range user.Notes {
		if n.Content != "" {
			stats.Notes++
		}
	}
	return stats
}
