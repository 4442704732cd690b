package model

type DashboardStats struct {
	Points              int `json:"points"`
	Routes              int `json:"routes"`
	TotalActivities     int `json:"totalActivities"`
	CompletedActivities int `json:"completedActivities"`
	AverageProgress     int `json:"averageProgress"` // mean of per-route percentages
	Notes               int `json:"notes"`
}
