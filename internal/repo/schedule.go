package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/workfree/search-briefing/internal/models"
)

// ScheduleRepo persists briefing schedules. It is the durable side of the
// trigger state; the engine rehydrates from it at startup.
type ScheduleRepo struct {
	DB *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{DB: db}
}

const scheduleColumns = `user_id, recipient, keywords, hour, minute, weekdays, max_results, providers, paused, created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (*models.Schedule, error) {
	s := &models.Schedule{}
	var keywords, providers pq.StringArray
	var weekdays pq.Int64Array
	err := row.Scan(&s.UserID, &s.Recipient, &keywords, &s.Hour, &s.Minute,
		&weekdays, &s.MaxResults, &providers, &s.Paused, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Keywords = keywords
	s.Providers = providers
	s.Weekdays = make([]int, len(weekdays))
	for i, d := range weekdays {
		s.Weekdays[i] = int(d)
	}
	return s, nil
}

// Upsert inserts the schedule or replaces the existing row for the same
// user_id wholesale. Returns the stored schedule with timestamps set.
func (r *ScheduleRepo) Upsert(ctx context.Context, s *models.Schedule) (*models.Schedule, error) {
	weekdays := make(pq.Int64Array, len(s.Weekdays))
	for i, d := range s.Weekdays {
		weekdays[i] = int64(d)
	}
	query := `
		INSERT INTO schedules (user_id, recipient, keywords, hour, minute, weekdays, max_results, providers, paused)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
		ON CONFLICT (user_id) DO UPDATE SET
			recipient = EXCLUDED.recipient,
			keywords = EXCLUDED.keywords,
			hour = EXCLUDED.hour,
			minute = EXCLUDED.minute,
			weekdays = EXCLUDED.weekdays,
			max_results = EXCLUDED.max_results,
			providers = EXCLUDED.providers,
			paused = false,
			updated_at = now()
		RETURNING ` + scheduleColumns
	row := r.DB.QueryRowContext(ctx, query,
		s.UserID, s.Recipient, pq.StringArray(s.Keywords), s.Hour, s.Minute,
		weekdays, s.MaxResults, pq.StringArray(s.Providers))
	return scanSchedule(row)
}

// GetByUserID returns the schedule for user_id, or nil when none exists.
func (r *ScheduleRepo) GetByUserID(ctx context.Context, userID string) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE user_id = $1`
	s, err := scanSchedule(r.DB.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all schedules ordered by user_id.
func (r *ScheduleRepo) List(ctx context.Context) ([]models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules ORDER BY user_id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// Delete removes the schedule for user_id. Returns whether a row existed;
// a missing user_id is a normal negative result, not an error.
func (r *ScheduleRepo) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM schedules WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetPaused toggles firing for user_id without touching the definition.
// Returns whether a row existed.
func (r *ScheduleRepo) SetPaused(ctx context.Context, userID string, paused bool) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE schedules SET paused = $1, updated_at = now() WHERE user_id = $2`,
		paused, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the total number of schedules.
func (r *ScheduleRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules`).Scan(&n)
	return n, err
}
