package expedition

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"backend-peakjournal/internal/blobstore"
	"backend-peakjournal/internal/db"
	"backend-peakjournal/internal/media"
	"backend-peakjournal/internal/policy"
	"backend-peakjournal/internal/report"
	"backend-peakjournal/internal/shared/apperr"
	"backend-peakjournal/internal/shared/strlist"
	"backend-peakjournal/internal/waypoint"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

const (
	heroPrefix     = "expeditions/heroes"
	detailCacheTTL = 5 * time.Minute
	defaultPerPage = 12
	maxPerPage     = 100
)

type Service struct {
	db    db.Querier
	cache *redis.Client
	blobs blobstore.Store

	waypoints *waypoint.Service
	reports   *report.Service
	media     *media.Service
}

func NewService(q db.Querier, cache *redis.Client, blobs blobstore.Store, wps *waypoint.Service, rpts *report.Service, md *media.Service) *Service {
	return &Service{db: q, cache: cache, blobs: blobs, waypoints: wps, reports: rpts, media: md}
}

// Detail is the full aggregate handed to the rendering layer.
type Detail struct {
	Expedition
	Waypoints []waypoint.Waypoint  `json:"waypoints"`
	Reports   []report.DailyReport `json:"daily_reports"`
	Media     []media.Media        `json:"media"`
}

const expCols = `id, title, COALESCE(subtitle,''), summary, location, start_date, end_date, duration,
	COALESCE(team_members,'[]'), COALESCE(hero_image,''), COALESCE(main_objectives,''),
	COALESCE(map_embed_link,''), status, user_id, created_at, updated_at`

// Create persists a new expedition owned by ownerID. The hero upload,
// when present, is stored before the insert so the row never points at
// an unpersisted file.
func (s *Service) Create(ctx context.Context, ownerID string, in Input, hero *blobstore.Upload) (Expedition, error) {
	var e Expedition
	if err := in.applyTo(&e); err != nil {
		return Expedition{}, err
	}
	e.ID = uuid.NewString()
	e.OwnerID = ownerID

	if hero != nil {
		ref, err := s.blobs.Save(ctx, heroPrefix, hero.Filename, hero.Data)
		if err != nil {
			return Expedition{}, err
		}
		e.HeroImage = ref
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO expeditions (id, title, subtitle, summary, location, start_date, end_date, duration, team_members, hero_image, main_objectives, map_embed_link, status, user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at
	`, e.ID, e.Title, e.Subtitle, e.Summary, e.Location, e.StartDate, e.EndDate, e.Duration,
		strlist.Encode(e.TeamMembers), e.HeroImage, e.MainObjectives, e.MapEmbedLink, string(e.Status), e.OwnerID)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		if e.HeroImage != "" {
			s.releaseBlob(ctx, e.HeroImage)
		}
		return Expedition{}, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (Expedition, error) {
	row := s.db.QueryRow(ctx, `SELECT `+expCols+` FROM expeditions WHERE id=$1`, id)
	e, err := scanExpedition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expedition{}, apperr.ErrNotFound
		}
		return Expedition{}, err
	}
	return e, nil
}

// List returns a page of expeditions, newest first, narrowed to what
// the caller's policy scope lets them see.
func (s *Service) List(ctx context.Context, scope policy.Scope, actorID string, page, perPage int) ([]Expedition, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	offset := (page - 1) * perPage

	var (
		rows pgx.Rows
		err  error
	)
	switch scope {
	case policy.ScopeAll:
		rows, err = s.db.Query(ctx, `
			SELECT `+expCols+` FROM expeditions
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`, perPage, offset)
	case policy.ScopePublishedOrOwn:
		rows, err = s.db.Query(ctx, `
			SELECT `+expCols+` FROM expeditions
			WHERE status='published' OR user_id=$1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, actorID, perPage, offset)
	default:
		rows, err = s.db.Query(ctx, `
			SELECT `+expCols+` FROM expeditions
			WHERE status='published'
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`, perPage, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Expedition
	for rows.Next() {
		e, err := scanExpedition(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// Detail loads the expedition with its waypoints, reports and media.
// Published details are served from and written to the redis cache;
// drafts are never cached since their visibility is ownership-scoped.
func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	if d, ok := s.cachedDetail(ctx, id); ok {
		return d, nil
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	wps, err := s.waypoints.ListByExpedition(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	rpts, err := s.reports.ListByExpedition(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	items, err := s.media.ListByExpedition(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{Expedition: e, Waypoints: wps, Reports: rpts, Media: items}
	if e.IsPublished() {
		s.storeDetail(ctx, d)
	}
	return d, nil
}

// Update merges the patch, recomputes duration and handles hero image
// replacement: the new file is stored first, the row updated, and only
// then is the old file released. A failed row update releases the new
// (still unreferenced) file and leaves the old one intact.
func (s *Service) Update(ctx context.Context, id string, in Input, hero *blobstore.Upload) (Expedition, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Expedition{}, err
	}
	oldHero := e.HeroImage

	if err := in.applyTo(&e); err != nil {
		return Expedition{}, err
	}

	newHero := ""
	if hero != nil {
		newHero, err = s.blobs.Save(ctx, heroPrefix, hero.Filename, hero.Data)
		if err != nil {
			return Expedition{}, err
		}
		e.HeroImage = newHero
	}

	_, err = s.db.Exec(ctx, `
		UPDATE expeditions
		SET title=$2, subtitle=$3, summary=$4, location=$5, start_date=$6, end_date=$7, duration=$8,
		    team_members=$9, hero_image=$10, main_objectives=$11, map_embed_link=$12, status=$13, updated_at=now()
		WHERE id=$1
	`, e.ID, e.Title, e.Subtitle, e.Summary, e.Location, e.StartDate, e.EndDate, e.Duration,
		strlist.Encode(e.TeamMembers), e.HeroImage, e.MainObjectives, e.MapEmbedLink, string(e.Status))
	if err != nil {
		if newHero != "" {
			s.releaseBlob(ctx, newHero)
		}
		return Expedition{}, err
	}

	if newHero != "" && oldHero != "" {
		s.releaseBlob(ctx, oldHero)
	}
	s.invalidate(ctx, id)
	return e, nil
}

// Delete removes the expedition row (waypoints, reports and media
// cascade at the schema level) and then releases every blob the
// aggregate referenced. Release failures are logged and swallowed.
func (s *Service) Delete(ctx context.Context, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	refs := make([]string, 0, 4)
	if e.HeroImage != "" {
		refs = append(refs, e.HeroImage)
	}
	rows, err := s.db.Query(ctx, `
		SELECT file_path FROM expedition_media
		WHERE expedition_id=$1 AND file_path IS NOT NULL AND file_path <> ''
	`, id)
	if err != nil {
		return err
	}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return err
		}
		refs = append(refs, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM expeditions WHERE id=$1`, id); err != nil {
		return err
	}

	for _, ref := range refs {
		s.releaseBlob(ctx, ref)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) releaseBlob(ctx context.Context, ref string) {
	if err := s.blobs.Delete(ctx, ref); err != nil {
		log.Printf("blob release failed for %s: %v", ref, err)
	}
}

func (s *Service) cachedDetail(ctx context.Context, id string) (Detail, bool) {
	if s.cache == nil {
		return Detail{}, false
	}
	raw, err := s.cache.Get(ctx, db.ExpeditionDetailKey(id)).Bytes()
	if err != nil {
		return Detail{}, false
	}
	var d Detail
	if err := json.Unmarshal(raw, &d); err != nil {
		return Detail{}, false
	}
	return d, true
}

func (s *Service) storeDetail(ctx context.Context, d Detail) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, db.ExpeditionDetailKey(d.ID), raw, detailCacheTTL).Err()
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, db.ExpeditionDetailKey(id)).Err()
	}
}

func scanExpedition(row pgx.Row) (Expedition, error) {
	var e Expedition
	var team []byte
	var status string
	if err := row.Scan(&e.ID, &e.Title, &e.Subtitle, &e.Summary, &e.Location, &e.StartDate, &e.EndDate, &e.Duration,
		&team, &e.HeroImage, &e.MainObjectives, &e.MapEmbedLink, &status, &e.OwnerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Expedition{}, err
	}
	e.TeamMembers = strlist.Decode(team)
	e.Status = Status(status)
	return e, nil
}
