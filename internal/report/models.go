package report

import (
	"time"

	"backend-peakjournal/internal/shared/apperr"
	"backend-peakjournal/internal/shared/strlist"
)

type DailyReport struct {
	ID               string             `json:"id"`
	ExpeditionID     string             `json:"expedition_id"`
	ReportDate       time.Time          `json:"report_date"`
	DayNumber        int                `json:"day_number"`
	Description      string             `json:"description"`
	TerrainCondition string             `json:"terrain_condition"`
	ImportantNotes   string             `json:"important_notes,omitempty"`
	Challenges       string             `json:"challenges,omitempty"`
	Photos           strlist.StringList `json:"photos"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type Input struct {
	ReportDate       string             `json:"report_date" form:"report_date"`
	DayNumber        *int               `json:"day_number" form:"day_number"`
	Description      string             `json:"description" form:"description"`
	TerrainCondition string             `json:"terrain_condition" form:"terrain_condition"`
	ImportantNotes   string             `json:"important_notes" form:"important_notes"`
	Challenges       string             `json:"challenges" form:"challenges"`
	Photos           strlist.StringList `json:"photos"`
}

const dateLayout = "2006-01-02"

func (in Input) applyTo(r *DailyReport) error {
	v := apperr.NewValidation()

	if in.ReportDate != "" {
		if t, err := time.Parse(dateLayout, in.ReportDate); err != nil {
			v.Add("report_date", "Report date must be a valid date.")
		} else {
			r.ReportDate = t
		}
	}
	if in.DayNumber != nil {
		r.DayNumber = *in.DayNumber
	}
	if in.Description != "" {
		r.Description = in.Description
	}
	if in.TerrainCondition != "" {
		r.TerrainCondition = in.TerrainCondition
	}
	if in.ImportantNotes != "" {
		r.ImportantNotes = in.ImportantNotes
	}
	if in.Challenges != "" {
		r.Challenges = in.Challenges
	}

	// A nil list means the field was absent from the payload; coerced
	// junk arrives as an empty non-nil list and does overwrite.
	if in.Photos != nil {
		r.Photos = in.Photos
	}
	if r.Photos == nil {
		r.Photos = strlist.StringList{}
	}

	if r.ReportDate.IsZero() {
		v.Add("report_date", "Report date is required.")
	}
	if r.DayNumber < 1 {
		v.Add("day_number", "Day number must be a positive integer.")
	}
	if r.Description == "" {
		v.Add("description", "Report description is required.")
	}
	if r.TerrainCondition == "" {
		v.Add("terrain_condition", "Terrain condition is required.")
	}

	return v.Err()
}
