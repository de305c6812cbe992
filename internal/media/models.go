package media

import (
	"net/url"
	"time"

	"backend-peakjournal/internal/shared/apperr"
)

const (
	TypePhoto = "photo"
	TypeVideo = "video"
)

type Media struct {
	ID           string    `json:"id"`
	ExpeditionID string    `json:"expedition_id"`
	Type         string    `json:"type"`
	FilePath     string    `json:"file_path,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	Title        string    `json:"title,omitempty"`
	Description  string    `json:"description,omitempty"`
	Position     int       `json:"order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (m Media) IsPhoto() bool { return m.Type == TypePhoto }
func (m Media) IsVideo() bool { return m.Type == TypeVideo }

type Input struct {
	Type        string `json:"type" form:"type"`
	VideoURL    string `json:"video_url" form:"video_url"`
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Position    *int   `json:"order" form:"order"`
}

// validateCreate checks the type-specific shape: a photo must arrive
// with an upload, a video with a well-formed URL. hasFile reports
// whether an upload accompanied the request.
func (in Input) validateCreate(hasFile bool) error {
	v := apperr.NewValidation()
	switch in.Type {
	case TypePhoto:
		if !hasFile {
			v.Add("file", "A photo upload is required for photo media.")
		}
	case TypeVideo:
		if in.VideoURL == "" {
			v.Add("video_url", "A video URL is required for video media.")
		} else if u, err := url.Parse(in.VideoURL); err != nil || !u.IsAbs() || u.Host == "" {
			v.Add("video_url", "Video URL must be a valid URL.")
		}
	default:
		v.Add("type", "Media type must be photo or video.")
	}
	return v.Err()
}
