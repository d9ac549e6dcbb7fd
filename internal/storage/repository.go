package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createDailyStatsSQL = `CREATE TABLE IF NOT EXISTS daily_stats (
        participant         TEXT        NOT NULL,
        assessment_point    TEXT        NOT NULL,
        stat_date           DATE        NOT NULL,
        sleep_onset         TIMESTAMP,
        sleep_offset        TIMESTAMP,
        night_sleep_period  BIGINT,
        total_sleep_time    BIGINT,
        total_wake_time     BIGINT,
        sleep_efficiency    NUMERIC(10,4),
        percent_daily_sleep NUMERIC(10,4) NOT NULL,
        eight_to_eight      BIGINT      NOT NULL,
        sedentary_minutes   INTEGER     NOT NULL,
        light_minutes       INTEGER     NOT NULL,
        mvpa_minutes        INTEGER     NOT NULL,
        nap_count           INTEGER     NOT NULL,
        nap_average         INTEGER     NOT NULL,
        nap_min             INTEGER     NOT NULL,
        nap_max             INTEGER     NOT NULL,
        created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (participant, assessment_point, stat_date)
    );`

	upsertDailyStatsSQL = `INSERT INTO daily_stats (
        participant,
        assessment_point,
        stat_date,
        sleep_onset,
        sleep_offset,
        night_sleep_period,
        total_sleep_time,
        total_wake_time,
        sleep_efficiency,
        percent_daily_sleep,
        eight_to_eight,
        sedentary_minutes,
        light_minutes,
        mvpa_minutes,
        nap_count,
        nap_average,
        nap_min,
        nap_max
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
    )
    ON CONFLICT (participant, assessment_point, stat_date) DO UPDATE
    SET
        sleep_onset         = EXCLUDED.sleep_onset,
        sleep_offset        = EXCLUDED.sleep_offset,
        night_sleep_period  = EXCLUDED.night_sleep_period,
        total_sleep_time    = EXCLUDED.total_sleep_time,
        total_wake_time     = EXCLUDED.total_wake_time,
        sleep_efficiency    = EXCLUDED.sleep_efficiency,
        percent_daily_sleep = EXCLUDED.percent_daily_sleep,
        eight_to_eight      = EXCLUDED.eight_to_eight,
        sedentary_minutes   = EXCLUDED.sedentary_minutes,
        light_minutes       = EXCLUDED.light_minutes,
        mvpa_minutes        = EXCLUDED.mvpa_minutes,
        nap_count           = EXCLUDED.nap_count,
        nap_average         = EXCLUDED.nap_average,
        nap_min             = EXCLUDED.nap_min,
        nap_max             = EXCLUDED.nap_max;`

	listDailyStatsSQL = `SELECT
        participant,
        assessment_point,
        stat_date,
        sleep_onset,
        sleep_offset,
        night_sleep_period,
        total_sleep_time,
        total_wake_time,
        sleep_efficiency::TEXT,
        percent_daily_sleep::TEXT,
        eight_to_eight,
        sedentary_minutes,
        light_minutes,
        mvpa_minutes,
        nap_count,
        nap_average,
        nap_min,
        nap_max,
        created_at
    FROM daily_stats
    WHERE ($1 = '' OR participant = $1)
      AND ($2 = '' OR assessment_point = $2)
    ORDER BY participant, assessment_point, stat_date;`
)

// DailyStatsStore persists scored participant-days.
type DailyStatsStore interface {
	EnsureSchema(ctx context.Context) error
	UpsertDailyStats(ctx context.Context, rows []DailyStatsRow) error
	ListDailyStats(ctx context.Context, participant, assessment string) ([]DailyStatsRow, error)
}

// Store writes daily statistics to PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the daily_stats table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createDailyStatsSQL); err != nil {
		return fmt.Errorf("create daily_stats: %w", err)
	}
	return nil
}

// UpsertDailyStats writes all rows of one participant in a single batch.
func (s *Store) UpsertDailyStats(ctx context.Context, rows []DailyStatsRow) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertDailyStatsSQL, upsertArgs(row)...)
	}

	results := pool.SendBatch(ctx, batch)
	for _, row := range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upsert daily stats %s %s: %w", row.Participant, row.StatDate.Format("2006-01-02"), err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return nil
}

func upsertArgs(row DailyStatsRow) []any {
	var efficiency any
	if row.SleepEfficiency != nil {
		efficiency = row.SleepEfficiency.String()
	}
	return []any{
		row.Participant,
		row.AssessmentPoint,
		row.StatDate,
		row.SleepOnset,
		row.SleepOffset,
		row.NightSleepPeriod,
		row.TotalSleepTime,
		row.TotalWakeTime,
		efficiency,
		row.PercentDailySleep.String(),
		row.EightToEight,
		row.Sedentary,
		row.Light,
		row.MVPA,
		row.NapCount,
		row.NapAverage,
		row.NapMin,
		row.NapMax,
	}
}

// ListDailyStats returns stored days. An empty participant or assessment
// matches every value.
func (s *Store) ListDailyStats(ctx context.Context, participant, assessment string) ([]DailyStatsRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listDailyStatsSQL, participant, assessment)
	if queryErr != nil {
		return nil, fmt.Errorf("list daily stats: %w", queryErr)
	}
	defer rows.Close()

	out := make([]DailyStatsRow, 0)
	for rows.Next() {
		row, scanErr := scanDailyStats(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanDailyStats(rows pgx.Rows) (DailyStatsRow, error) {
	var (
		row           DailyStatsRow
		efficiencyStr *string
		percentStr    string
		createdAt     time.Time
	)

	if err := rows.Scan(
		&row.Participant,
		&row.AssessmentPoint,
		&row.StatDate,
		&row.SleepOnset,
		&row.SleepOffset,
		&row.NightSleepPeriod,
		&row.TotalSleepTime,
		&row.TotalWakeTime,
		&efficiencyStr,
		&percentStr,
		&row.EightToEight,
		&row.Sedentary,
		&row.Light,
		&row.MVPA,
		&row.NapCount,
		&row.NapAverage,
		&row.NapMin,
		&row.NapMax,
		&createdAt,
	); err != nil {
		return DailyStatsRow{}, err
	}

	percent, err := decimal.NewFromString(percentStr)
	if err != nil {
		return DailyStatsRow{}, fmt.Errorf("parse percent daily sleep: %w", err)
	}
	row.PercentDailySleep = percent
	row.CreatedAt = createdAt

	if efficiencyStr != nil {
		eff, err := decimal.NewFromString(*efficiencyStr)
		if err != nil {
			return DailyStatsRow{}, fmt.Errorf("parse sleep efficiency: %w", err)
		}
		row.SleepEfficiency = &eff
	}

	return row, nil
}

var _ DailyStatsStore = (*Store)(nil)
