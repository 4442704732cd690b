package dto

import "github.com/dododo1295/studyroute/model"

type ToggleActivityRequest struct {
	StudyMinutes int `json:"studyMinutes" binding:"min=0"`
}

type ToggleActivityResponse struct {
	User     model.UserSummary `json:"user"`
	Route    model.Route       `json:"route"`
	Activity model.Activity    `json:"activity"`
	Delta    int               `json:"delta"`
	Progress int               `json:"progress"`
}

type RouteResponse struct {
	model.Route
	Progress int             `json:"progress"`
	Links    map[string]Link `json:"_links,omitempty"`
}

func ToRouteResponse(r model.Route) RouteResponse {
	return RouteResponse{
		Route:    r,
		Progress: r.ProgressPercentage(),
		Links: map[string]Link{
			"self":   {Href: "/api/routes/" + r.ID, Method: "GET"},
			"delete": {Href: "/api/routes/" + r.ID, Method: "DELETE"},
		},
	}
}
