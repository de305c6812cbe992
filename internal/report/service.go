package report

import (
	"context"
	"errors"

	"backend-peakjournal/internal/db"
	"backend-peakjournal/internal/policy"
	"backend-peakjournal/internal/shared/apperr"
	"backend-peakjournal/internal/shared/strlist"

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

const reportCols = `id, expedition_id, report_date, day_number, description, terrain_condition,
	COALESCE(important_notes,''), COALESCE(challenges,''), COALESCE(photos,'[]'), created_at, updated_at`

func (s *Service) ListByExpedition(ctx context.Context, expeditionID string) ([]DailyReport, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+reportCols+`
		FROM daily_reports WHERE expedition_id=$1
		ORDER BY day_number
	`, expeditionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []DailyReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *Service) Get(ctx context.Context, expeditionID, id string) (DailyReport, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+reportCols+`
		FROM daily_reports WHERE id=$1 AND expedition_id=$2
	`, id, expeditionID)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DailyReport{}, apperr.ErrNotFound
		}
		return DailyReport{}, err
	}
	return r, nil
}

func (s *Service) Create(ctx context.Context, expeditionID string, in Input) (DailyReport, error) {
	r := DailyReport{ExpeditionID: expeditionID}
	if err := in.applyTo(&r); err != nil {
		return DailyReport{}, err
	}
	if err := s.checkDayNumberFree(ctx, expeditionID, r.DayNumber, ""); err != nil {
		return DailyReport{}, err
	}
	r.ID = uuid.NewString()

	row := s.db.QueryRow(ctx, `
		INSERT INTO daily_reports (id, expedition_id, report_date, day_number, description, terrain_condition, important_notes, challenges, photos)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`, r.ID, r.ExpeditionID, r.ReportDate, r.DayNumber, r.Description, r.TerrainCondition, r.ImportantNotes, r.Challenges, strlist.Encode(r.Photos))
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return DailyReport{}, err
	}
	s.invalidate(ctx, expeditionID)
	return r, nil
}

func (s *Service) Update(ctx context.Context, expeditionID, id string, in Input) (DailyReport, error) {
	r, err := s.Get(ctx, expeditionID, id)
	if err != nil {
		return DailyReport{}, err
	}
	if err := in.applyTo(&r); err != nil {
		return DailyReport{}, err
	}
	if err := s.checkDayNumberFree(ctx, expeditionID, r.DayNumber, r.ID); err != nil {
		return DailyReport{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE daily_reports
		SET report_date=$2, day_number=$3, description=$4, terrain_condition=$5, important_notes=$6, challenges=$7, photos=$8, updated_at=now()
		WHERE id=$1
	`, r.ID, r.ReportDate, r.DayNumber, r.Description, r.TerrainCondition, r.ImportantNotes, r.Challenges, strlist.Encode(r.Photos))
	if err != nil {
		return DailyReport{}, err
	}
	s.invalidate(ctx, expeditionID)
	return r, nil
}

func (s *Service) Delete(ctx context.Context, expeditionID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM daily_reports WHERE id=$1 AND expedition_id=$2`, id, expeditionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	s.invalidate(ctx, expeditionID)
	return nil
}

// checkDayNumberFree keeps day numbers unique per expedition. This is
// an application-level check, not a schema constraint, matching how
// the journal has always treated day numbering.
func (s *Service) checkDayNumberFree(ctx context.Context, expeditionID string, dayNumber int, excludeID string) error {
	var taken bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM daily_reports
			WHERE expedition_id=$1 AND day_number=$2 AND id <> $3
		)
	`, expeditionID, dayNumber, excludeID).Scan(&taken)
	if err != nil {
		return err
	}
	if taken {
		v := apperr.NewValidation()
		v.Add("day_number", "A report for this day number already exists.")
		return v.Err()
	}
	return nil
}

func scanReport(row pgx.Row) (DailyReport, error) {
	var r DailyReport
	var photosRaw []byte
	if err := row.Scan(&r.ID, &r.ExpeditionID, &r.ReportDate, &r.DayNumber, &r.Description, &r.TerrainCondition, &r.ImportantNotes, &r.Challenges, &photosRaw, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return DailyReport{}, err
	}
	r.Photos = strlist.Decode(photosRaw)
	return r, nil
}

func (s *Service) invalidate(ctx context.Context, expeditionID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, db.ExpeditionDetailKey(expeditionID)).Err()
	}
}
