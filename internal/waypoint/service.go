package waypoint

import (
	"context"
	"errors"

	"backend-peakjournal/internal/db"
	"backend-peakjournal/internal/policy"
	"backend-peakjournal/internal/shared/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

type Service struct {
	db    db.Querier
	cache *redis.Client
}

func NewService(db db.Querier, cache *redis.Client) *Service {
	return &Service{db: db, cache: cache}
}

// Parent resolves the owning expedition into its policy-relevant
// shape. Handlers authorize waypoint access against this.
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

func (s *Service) ListByExpedition(ctx context.Context, expeditionID string) ([]Waypoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, expedition_id, name, type, COALESCE(description,''), latitude, longitude, position, created_at, updated_at
		FROM waypoints WHERE expedition_id=$1
		ORDER BY position, created_at
	`, expeditionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waypoints []Waypoint
	for rows.Next() {
		var w Waypoint
		if err := rows.Scan(&w.ID, &w.ExpeditionID, &w.Name, &w.Type, &w.Description, &w.Latitude, &w.Longitude, &w.Position, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		waypoints = append(waypoints, w)
	}
	return waypoints, rows.Err()
}

func (s *Service) Create(ctx context.Context, expeditionID string, in Input) (Waypoint, error) {
	w := Waypoint{ExpeditionID: expeditionID}
	if err := in.applyTo(&w); err != nil {
		return Waypoint{}, err
	}
	w.ID = uuid.NewString()

	row := s.db.QueryRow(ctx, `
		INSERT INTO waypoints (id, expedition_id, name, type, description, latitude, longitude, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, w.ID, w.ExpeditionID, w.Name, w.Type, w.Description, w.Latitude, w.Longitude, w.Position)
	if err := row.Scan(&w.CreatedAt, &w.UpdatedAt); err != nil {
		return Waypoint{}, err
	}
	s.invalidate(ctx, expeditionID)
	return w, nil
}

func (s *Service) Get(ctx context.Context, expeditionID, id string) (Waypoint, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, expedition_id, name, type, COALESCE(description,''), latitude, longitude, position, created_at, updated_at
		FROM waypoints WHERE id=$1 AND expedition_id=$2
	`, id, expeditionID)
	var w Waypoint
	if err := row.Scan(&w.ID, &w.ExpeditionID, &w.Name, &w.Type, &w.Description, &w.Latitude, &w.Longitude, &w.Position, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Waypoint{}, apperr.ErrNotFound
		}
		return Waypoint{}, err
	}
	return w, nil
}

func (s *Service) Update(ctx context.Context, expeditionID, id string, in Input) (Waypoint, error) {
	w, err := s.Get(ctx, expeditionID, id)
	if err != nil {
		return Waypoint{}, err
	}
	if err := in.applyTo(&w); err != nil {
		return Waypoint{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE waypoints
		SET name=$2, type=$3, description=$4, latitude=$5, longitude=$6, position=$7, updated_at=now()
		WHERE id=$1
	`, w.ID, w.Name, w.Type, w.Description, w.Latitude, w.Longitude, w.Position)
	if err != nil {
		return Waypoint{}, err
	}
	s.invalidate(ctx, expeditionID)
	return w, nil
}

func (s *Service) Delete(ctx context.Context, expeditionID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM waypoints WHERE id=$1 AND expedition_id=$2`, id, expeditionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	s.invalidate(ctx, expeditionID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, expeditionID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, db.ExpeditionDetailKey(expeditionID)).Err()
	}
}
