package waypoint

import (
	"time"

	"backend-peakjournal/internal/shared/apperr"
)

type Waypoint struct {
	ID           string    `json:"id"`
	ExpeditionID string    `json:"expedition_id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Description  string    `json:"description,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Position     int       `json:"order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var validTypes = map[string]bool{
	"start_point":   true,
	"water_source":  true,
	"camp_location": true,
	"danger_point":  true,
	"landmark":      true,
	"end_point":     true,
}

type Input struct {
	Name        string   `json:"name" form:"name"`
	Type        string   `json:"type" form:"type"`
	Description string   `json:"description" form:"description"`
	Latitude    *float64 `json:"latitude" form:"latitude"`
	Longitude   *float64 `json:"longitude" form:"longitude"`
	Position    *int     `json:"order" form:"order"`
}

func (in Input) applyTo(w *Waypoint) error {
	v := apperr.NewValidation()

	if in.Name != "" {
		w.Name = in.Name
	}
	if in.Type != "" {
		w.Type = in.Type
	}
	if in.Description != "" {
		w.Description = in.Description
	}
	if in.Latitude != nil {
		w.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		w.Longitude = in.Longitude
	}
	if in.Position != nil {
		w.Position = *in.Position
	}

	if w.Name == "" {
		v.Add("name", "Waypoint name is required.")
	}
	if !validTypes[w.Type] {
		v.Add("type", "Waypoint type is not recognized.")
	}
	if w.Latitude != nil && (*w.Latitude < -90 || *w.Latitude > 90) {
		v.Add("latitude", "Latitude must be between -90 and 90.")
	}
	if w.Longitude != nil && (*w.Longitude < -180 || *w.Longitude > 180) {
		v.Add("longitude", "Longitude must be between -180 and 180.")
	}

	return v.Err()
}
