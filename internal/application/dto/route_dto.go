package dto

import (
	"time"

	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// DateLayout formato de fechas planificadas (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// CreateRouteRequest body para POST /api/routes.
type CreateRouteRequest struct {
	CourierID        string   `json:"courier_id"`
	PlannedDate      string   `json:"planned_date"` // YYYY-MM-DD
	DistanceKm       *float64 `json:"distance_km,omitempty"`
	EstimatedMinutes *int     `json:"estimated_minutes,omitempty"`
	OrderIDs         []string `json:"order_ids"`
}

// AssignOrdersRequest body para POST /api/routes/:id/orders.
type AssignOrdersRequest struct {
	OrderIDs []string `json:"order_ids"`
}

// RouteResponse ruta en respuestas.
type RouteResponse struct {
	ID               string     `json:"id"`
	CourierID        string     `json:"courier_id"`
	Status           string     `json:"status"`
	PlannedDate      string     `json:"planned_date"`
	DistanceKm       *float64   `json:"distance_km,omitempty"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	OrderIDs         []string   `json:"order_ids"`
	Active           bool       `json:"active"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// RouteListResponse lista paginada de rutas.
type RouteListResponse struct {
	Items []RouteResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

func RouteFromEntity(r *entity.Route) RouteResponse {
	ids := r.OrderIDs
	if ids == nil {
		ids = []string{}
	}
	return RouteResponse{
		ID:               r.ID,
		CourierID:        r.CourierID,
		Status:           string(r.Status),
		PlannedDate:      r.PlannedDate.Format(DateLayout),
		DistanceKm:       r.DistanceKm,
		EstimatedMinutes: r.EstimatedMinutes,
		OrderIDs:         ids,
		Active:           r.Active,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
