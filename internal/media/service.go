package media

import (
	"context"
	"errors"
	"log"
	"net/url"

	"backend-peakjournal/internal/blobstore"
	"backend-peakjournal/internal/db"
	"backend-peakjournal/internal/policy"
	"backend-peakjournal/internal/shared/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

const blobPrefix = "expeditions/media"

type Service struct {
	db    db.Querier
	cache *redis.Client
	blobs blobstore.Store
}

func NewService(db db.Querier, cache *redis.Client, blobs blobstore.Store) *Service {
	return &Service{db: db, cache: cache, blobs: blobs}
}

func (s *Service) Parent(ctx context.Context, expeditionID string) (policy.Resource, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, status FROM expeditions WHERE id=$1
	`, expeditionID)
	var ownerID, status string
	if err := row.Scan(&ownerID, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy.Resource{}, apperr.ErrNotFound
		}
		return policy.Resource{}, err
	}
	return policy.Resource{OwnerID: ownerID, Published: status == "published"}, nil
}

const mediaCols = `id, expedition_id, type, COALESCE(file_path,''), COALESCE(video_url,''),
	COALESCE(title,''), COALESCE(description,''), position, created_at, updated_at`

func (s *Service) ListByExpedition(ctx context.Context, expeditionID string) ([]Media, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+mediaCols+`
		FROM expedition_media WHERE expedition_id=$1
		ORDER BY position, created_at
	`, expeditionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Media
	for rows.Next() {
		var m Media
		if err := rows.Scan(&m.ID, &m.ExpeditionID, &m.Type, &m.FilePath, &m.VideoURL, &m.Title, &m.Description, &m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (s *Service) Get(ctx context.Context, expeditionID, id string) (Media, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+mediaCols+`
		FROM expedition_media WHERE id=$1 AND expedition_id=$2
	`, id, expeditionID)
	var m Media
	if err := row.Scan(&m.ID, &m.ExpeditionID, &m.Type, &m.FilePath, &m.VideoURL, &m.Title, &m.Description, &m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Media{}, apperr.ErrNotFound
		}
		return Media{}, err
	}
	return m, nil
}

// Create stores the upload (for photos) before inserting the record,
// so a row never points at a file that failed to persist.
func (s *Service) Create(ctx context.Context, expeditionID string, in Input, file *blobstore.Upload) (Media, error) {
	if err := in.validateCreate(file != nil); err != nil {
		return Media{}, err
	}

	m := Media{
		ID:           uuid.NewString(),
		ExpeditionID: expeditionID,
		Type:         in.Type,
		Title:        in.Title,
		Description:  in.Description,
	}
	if in.Position != nil {
		m.Position = *in.Position
	}

	switch in.Type {
	case TypePhoto:
		ref, err := s.blobs.Save(ctx, blobPrefix, file.Filename, file.Data)
		if err != nil {
			return Media{}, err
		}
		m.FilePath = ref
	case TypeVideo:
		m.VideoURL = in.VideoURL
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO expedition_media (id, expedition_id, type, file_path, video_url, title, description, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, m.ID, m.ExpeditionID, m.Type, m.FilePath, m.VideoURL, m.Title, m.Description, m.Position)
	if err := row.Scan(&m.CreatedAt, &m.UpdatedAt); err != nil {
		if m.FilePath != "" {
			s.releaseBlob(ctx, m.FilePath)
		}
		return Media{}, err
	}
	s.invalidate(ctx, expeditionID)
	return m, nil
}

// Update patches the descriptive fields. The stored file and the
// photo/video kind are immutable; replace means delete and re-create.
func (s *Service) Update(ctx context.Context, expeditionID, id string, in Input) (Media, error) {
	m, err := s.Get(ctx, expeditionID, id)
	if err != nil {
		return Media{}, err
	}
	if in.Title != "" {
		m.Title = in.Title
	}
	if in.Description != "" {
		m.Description = in.Description
	}
	if in.Position != nil {
		m.Position = *in.Position
	}
	if in.VideoURL != "" {
		if !m.IsVideo() {
			v := apperr.NewValidation()
			v.Add("video_url", "Only video media carries a video URL.")
			return Media{}, v.Err()
		}
		if u, err := url.Parse(in.VideoURL); err != nil || !u.IsAbs() || u.Host == "" {
			v := apperr.NewValidation()
			v.Add("video_url", "Video URL must be a valid URL.")
			return Media{}, v.Err()
		}
		m.VideoURL = in.VideoURL
	}

	_, err = s.db.Exec(ctx, `
		UPDATE expedition_media
		SET video_url=$2, title=$3, description=$4, position=$5, updated_at=now()
		WHERE id=$1
	`, m.ID, m.VideoURL, m.Title, m.Description, m.Position)
	if err != nil {
		return Media{}, err
	}
	s.invalidate(ctx, expeditionID)
	return m, nil
}

// Delete removes the record first and only then releases the stored
// file; a failed release is logged, never surfaced.
func (s *Service) Delete(ctx context.Context, expeditionID, id string) error {
	m, err := s.Get(ctx, expeditionID, id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM expedition_media WHERE id=$1`, m.ID); err != nil {
		return err
	}
	if m.FilePath != "" {
		s.releaseBlob(ctx, m.FilePath)
	}
	s.invalidate(ctx, expeditionID)
	return nil
}

func (s *Service) releaseBlob(ctx context.Context, ref string) {
	if err := s.blobs.Delete(ctx, ref); err != nil {
		log.Printf("media blob release failed for %s: %v", ref, err)
	}
}

func (s *Service) invalidate(ctx context.Context, expeditionID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, db.ExpeditionDetailKey(expeditionID)).Err()
	}
}
