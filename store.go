package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"picks-dashboard/chart"
	"picks-dashboard/templates"
)

const sportAll = "All"

// sports are the leagues picks are tracked for, in display order.
var sports = []string{"NBA", "NHL", "MLB", "MarchMadness"}

func validSport(s string) bool {
	return s == sportAll || slices.Contains(sports, s)
}

const dayLayout = "2006-01-02"

// store persists daily pick aggregates delivered by the picks producer.
type store struct {
	db  *sql.DB
	now func() time.Time
}

func newStore(db *sql.DB) *store {
	return &store{db: db, now: time.Now}
}

// errInvalidImport marks imports rejected before anything is written.
var errInvalidImport = errors.New("invalid import")

// upsertDaily writes one row per day of p for sport, replacing days that
// were imported before.
func (s *store) upsertDaily(ctx context.Context, sport, source string, p chart.Payload) error {
	if sport == sportAll || !validSport(sport) {
		return fmt.Errorf("%w: unknown sport %q", errInvalidImport, sport)
	}

	n := len(p.Dates)
	if len(p.LockCounts) != n || len(p.RockCounts) != n || len(p.SuccessRates) != n {
		return fmt.Errorf("%w: series lengths differ: dates=%d locks=%d rocks=%d rates=%d",
			errInvalidImport, n, len(p.LockCounts), len(p.RockCounts), len(p.SuccessRates))
	}
	for i, day := range p.Dates {
		if _, err := time.Parse(dayLayout, day); err != nil {
			return fmt.Errorf("%w: day %d: %q is not YYYY-MM-DD", errInvalidImport, i, day)
		}
		if p.LockCounts[i] != math.Trunc(p.LockCounts[i]) || p.RockCounts[i] != math.Trunc(p.RockCounts[i]) {
			return fmt.Errorf("%w: day %s: counts must be whole numbers", errInvalidImport, day)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := s.now().UTC().Format(time.RFC3339)
	for i, day := range p.Dates {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO daily_performance (sport, day, locks, rocks, success_rate, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (sport, day) DO UPDATE SET
				locks = excluded.locks,
				rocks = excluded.rocks,
				success_rate = excluded.success_rate,
				updated_at = excluded.updated_at`,
			sport, day, int64(p.LockCounts[i]), int64(p.RockCounts[i]), p.SuccessRates[i], now)
		if err != nil {
			return fmt.Errorf("upsert %s %s: %w", sport, day, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO imports (sport, source, days, created_at) VALUES (?, ?, ?, ?)`,
		sport, source, len(p.Dates), now); err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	return tx.Commit()
}

// window returns the latest days rows for sport in chronological order.
// For sportAll the leagues are summed per day and the rate is recomputed
// from the sums.
func (s *store) window(ctx context.Context, sport string, days int) (chart.Payload, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if sport == sportAll {
		rows, err = s.db.QueryContext(ctx, `
			SELECT day, SUM(locks), SUM(rocks), 0
			FROM daily_performance
			GROUP BY day
			ORDER BY day DESC
			LIMIT ?`, days)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT day, locks, rocks, success_rate
			FROM daily_performance
			WHERE sport = ?
			ORDER BY day DESC
			LIMIT ?`, sport, days)
	}
	if err != nil {
		return chart.Payload{}, err
	}
	defer rows.Close()

	p := chart.Payload{
		Dates:        []string{},
		LockCounts:   []float64{},
		RockCounts:   []float64{},
		SuccessRates: []float64{},
	}
	for rows.Next() {
		var (
			day          string
			locks, rocks int64
			rate         float64
		)
		if err := rows.Scan(&day, &locks, &rocks, &rate); err != nil {
			return chart.Payload{}, err
		}
		if sport == sportAll {
			rate = successRate(locks, rocks)
		}
		p.Dates = append(p.Dates, day)
		p.LockCounts = append(p.LockCounts, float64(locks))
		p.RockCounts = append(p.RockCounts, float64(rocks))
		p.SuccessRates = append(p.SuccessRates, rate)
	}
	if err := rows.Err(); err != nil {
		return chart.Payload{}, err
	}

	slices.Reverse(p.Dates)
	slices.Reverse(p.LockCounts)
	slices.Reverse(p.RockCounts)
	slices.Reverse(p.SuccessRates)
	return p, nil
}

// summaries returns one entry per sport, zero-valued when nothing was
// imported for it.
func (s *store) summaries(ctx context.Context) ([]templates.SportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sport, SUM(locks), SUM(rocks), MAX(updated_at)
		FROM daily_performance
		GROUP BY sport`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySport := make(map[string]templates.SportSummary)
	for rows.Next() {
		var (
			sum     templates.SportSummary
			updated string
		)
		if err := rows.Scan(&sum.Sport, &sum.Locks, &sum.Rocks, &updated); err != nil {
			return nil, err
		}
		sum.SuccessRate = successRate(sum.Locks, sum.Rocks)
		sum.Updated, _ = time.Parse(time.RFC3339, updated)
		bySport[sum.Sport] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res := make([]templates.SportSummary, 0, len(sports))
	for _, sport := range sports {
		sum, ok := bySport[sport]
		if !ok {
			sum.Sport = sport
		}
		res = append(res, sum)
	}
	return res, nil
}

// lastUpdated is the time of the latest import for sport, zero when there
// was none.
func (s *store) lastUpdated(ctx context.Context, sport string) (time.Time, error) {
	var (
		updated sql.NullString
		err     error
	)
	if sport == sportAll {
		err = s.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM daily_performance`).Scan(&updated)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM daily_performance WHERE sport = ?`, sport).Scan(&updated)
	}
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !updated.Valid) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, updated.String)
}

// successRate is the share of locks in percent, rounded to one decimal.
func successRate(locks, rocks int64) float64 {
	total := locks + rocks
	if total == 0 {
		return 0
	}
	return math.Round(float64(locks)/float64(total)*1000) / 10
}
