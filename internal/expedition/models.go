package expedition

import (
	"net/url"
	"time"

	"backend-peakjournal/internal/shared/apperr"
	"backend-peakjournal/internal/shared/strlist"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

type Expedition struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Subtitle       string             `json:"subtitle,omitempty"`
	Summary        string             `json:"summary"`
	Location       string             `json:"location"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
	Duration       int                `json:"duration"`
	TeamMembers    strlist.StringList `json:"team_members"`
	HeroImage      string             `json:"hero_image,omitempty"`
	MainObjectives string             `json:"main_objectives,omitempty"`
	MapEmbedLink   string             `json:"map_embed_link,omitempty"`
	Status         Status             `json:"status"`
	OwnerID        string             `json:"owner_user_id"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func (e Expedition) IsPublished() bool {
	return e.Status == StatusPublished
}

// Input is the client payload for create and update. Duration is
// deliberately absent: it is always derived from the dates, never
// accepted from the client. Dates travel as YYYY-MM-DD strings.
type Input struct {
	Title          string             `json:"title" form:"title"`
	Subtitle       string             `json:"subtitle" form:"subtitle"`
	Summary        string             `json:"summary" form:"summary"`
	Location       string             `json:"location" form:"location"`
	StartDate      string             `json:"start_date" form:"start_date"`
	EndDate        string             `json:"end_date" form:"end_date"`
	TeamMembers    strlist.StringList `json:"team_members" form:"team_members"`
	MainObjectives string             `json:"main_objectives" form:"main_objectives"`
	MapEmbedLink   string             `json:"map_embed_link" form:"map_embed_link"`
	Status         string             `json:"status" form:"status"`
}

const dateLayout = "2006-01-02"

// applyTo merges the input onto e and validates the merged record.
// Both dates are re-checked together on every write, so a patch that
// moves only one date can never produce an inverted range. Duration is
// recomputed here unconditionally.
func (in Input) applyTo(e *Expedition) error {
	v := apperr.NewValidation()

	if in.Title != "" {
		e.Title = in.Title
	}
	if in.Subtitle != "" {
		e.Subtitle = in.Subtitle
	}
	if in.Summary != "" {
		e.Summary = in.Summary
	}
	if in.Location != "" {
		e.Location = in.Location
	}
	if in.MainObjectives != "" {
		e.MainObjectives = in.MainObjectives
	}
	if in.MapEmbedLink != "" {
		e.MapEmbedLink = in.MapEmbedLink
	}

	if in.StartDate != "" {
		if t, err := time.Parse(dateLayout, in.StartDate); err != nil {
			v.Add("start_date", "Start date must be a valid date.")
		} else {
			e.StartDate = t
		}
	}
	if in.EndDate != "" {
		if t, err := time.Parse(dateLayout, in.EndDate); err != nil {
			v.Add("end_date", "End date must be a valid date.")
		} else {
			e.EndDate = t
		}
	}

	// A nil list means the field was absent from the payload; coerced
	// junk arrives as an empty non-nil list and does overwrite.
	if in.TeamMembers != nil {
		e.TeamMembers = in.TeamMembers
	}
	if e.TeamMembers == nil {
		e.TeamMembers = strlist.StringList{}
	}

	if in.Status != "" {
		switch Status(in.Status) {
		case StatusDraft, StatusPublished:
			e.Status = Status(in.Status)
		default:
			v.Add("status", "Status must be draft or published.")
		}
	} else if e.Status == "" {
		e.Status = StatusDraft
	}

	if e.Title == "" {
		v.Add("title", "Expedition title is required.")
	} else if len(e.Title) > 255 {
		v.Add("title", "Title must not exceed 255 characters.")
	}
	if len(e.Subtitle) > 255 {
		v.Add("subtitle", "Subtitle must not exceed 255 characters.")
	}
	if e.Summary == "" {
		v.Add("summary", "Expedition summary is required.")
	}
	if e.Location == "" {
		v.Add("location", "Location is required.")
	} else if len(e.Location) > 255 {
		v.Add("location", "Location must not exceed 255 characters.")
	}
	if e.StartDate.IsZero() {
		v.Add("start_date", "Start date is required.")
	}
	if e.EndDate.IsZero() {
		v.Add("end_date", "End date is required.")
	}
	if !e.StartDate.IsZero() && !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		v.Add("end_date", "End date must be after or equal to start date.")
	}
	if e.MapEmbedLink != "" {
		if u, err := url.Parse(e.MapEmbedLink); err != nil || !u.IsAbs() || u.Host == "" {
			v.Add("map_embed_link", "Map link must be a valid URL.")
		}
	}

	if err := v.Err(); err != nil {
		return err
	}

	e.Duration = durationDays(e.StartDate, e.EndDate)
	return nil
}

// durationDays is the inclusive day count between two dates.
func durationDays(start, end time.Time) int {
	return int(end.Sub(start)/(24*time.Hour)) + 1
}
