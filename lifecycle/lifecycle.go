// Package lifecycle implements the subscription state machine: a daily
// job that expires due subscriptions and activates each customer's queued
// successor, in one transaction so concurrent readers never observe a
// customer stranded between an expired subscription and its replacement.
package lifecycle

import (
	"database/sql"
	"time"

	"meal-order-service/calendar"
	"meal-order-service/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// expiredOn reports whether a subscription ending on endDate is past as
// of the brand-local day. The end date itself is still inside the period.
func expiredOn(endDate, today calendar.Date) bool {
	return endDate.Before(today)
}

type successorCandidate struct {
	ID        int
	StartDate calendar.Date
}

// pickSuccessor chooses at most one queued subscription to activate: the
// earliest-starting candidate whose start date has been reached, lowest
// id on a start-date tie. Candidates still in the future stay queued.
func pickSuccessor(candidates []successorCandidate, today calendar.Date) (int, bool) {
	best := -1
	for i, c := range candidates {
		if c.StartDate.After(today) {
			continue
		}
		if best == -1 ||
			c.StartDate.Before(candidates[best].StartDate) ||
			(c.StartDate == candidates[best].StartDate && c.ID < candidates[best].ID) {
			best = i
		}
	}
	if best == -1 {
		return 0, false
	}
	return candidates[best].ID, true
}

// latestToday is the latest calendar day it can currently be in any
// timezone (UTC+14). Used as a superset bound for the expiry query; the
// per-brand day decides the actual transition.
func latestToday(now time.Time) calendar.Date {
	return calendar.DateOf(now.Add(14*time.Hour), time.UTC)
}

// RunTick expires every ACTIVE subscription whose end date has passed in
// its brand's local day and activates, per expired subscription, the
// customer's earliest PENDING subscription whose start date has been
// reached. Brands without stored settings fall back to defaultLoc.
// Idempotent: re-running against current state is a no-op once the
// transitions have happened.
func (s *Store) RunTick(now time.Time, defaultLoc *time.Location) (models.LifecycleResult, error) {
	var result models.LifecycleResult

	tx, err := s.db.Begin()
	if err != nil {
		return result, err
	}

	tzByBrand, err := brandTimezones(tx)
	if err != nil {
		_ = tx.Rollback()
		return result, err
	}
	todayByBrand := make(map[int]calendar.Date)
	todayFor := func(brandID int) calendar.Date {
		if d, ok := todayByBrand[brandID]; ok {
			return d
		}
		loc := defaultLoc
		if name, ok := tzByBrand[brandID]; ok {
			if l, lerr := calendar.LoadLocation(name); lerr == nil {
				loc = l
			}
		}
		d := calendar.DateOf(now, loc)
		todayByBrand[brandID] = d
		return d
	}

	rows, err := tx.Query(`
		SELECT id, customer_id, brand_id, end_date FROM subscriptions
		WHERE status = ? AND end_date < ?
		FOR UPDATE`,
		models.SubscriptionActive, latestToday(now).String())
	if err != nil {
		_ = tx.Rollback()
		return result, err
	}

	type candidate struct {
		id, customerID, brandID int
		endDate                 calendar.Date
	}
	var due []candidate
	for rows.Next() {
		var c candidate
		var endDate time.Time
		if err := rows.Scan(&c.id, &c.customerID, &c.brandID, &endDate); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return result, err
		}
		c.endDate = calendar.Date(endDate.Format("2006-01-02"))
		due = append(due, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		_ = tx.Rollback()
		return result, err
	}
	rows.Close()

	if len(due) == 0 {
		return result, tx.Commit()
	}

	for _, c := range due {
		today := todayFor(c.brandID)
		if !expiredOn(c.endDate, today) {
			continue
		}

		if _, err := tx.Exec(`UPDATE subscriptions SET status = ? WHERE id = ?`,
			models.SubscriptionExpired, c.id); err != nil {
			_ = tx.Rollback()
			return result, err
		}
		result.ExpiredCount++

		// One successor per expired subscription.
		queued, err := queuedFor(tx, c.customerID, c.brandID)
		if err != nil {
			_ = tx.Rollback()
			return result, err
		}
		successorID, ok := pickSuccessor(queued, today)
		if !ok {
			continue
		}

		if _, err := tx.Exec(`UPDATE subscriptions SET status = ? WHERE id = ?`,
			models.SubscriptionActive, successorID); err != nil {
			_ = tx.Rollback()
			return result, err
		}
		result.ActivatedCount++
	}

	if err := tx.Commit(); err != nil {
		return models.LifecycleResult{}, err
	}
	return result, nil
}

func brandTimezones(tx *sql.Tx) (map[int]string, error) {
	rows, err := tx.Query(`SELECT brand_id, timezone FROM brand_settings WHERE is_active = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]string)
	for rows.Next() {
		var brandID int
		var tz string
		if err := rows.Scan(&brandID, &tz); err != nil {
			return nil, err
		}
		out[brandID] = tz
	}
	return out, rows.Err()
}

func queuedFor(tx *sql.Tx, customerID, brandID int) ([]successorCandidate, error) {
	rows, err := tx.Query(`
		SELECT id, start_date FROM subscriptions
		WHERE customer_id = ? AND brand_id = ? AND status = ?
		FOR UPDATE`,
		customerID, brandID, models.SubscriptionPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []successorCandidate
	for rows.Next() {
		var c successorCandidate
		var startDate time.Time
		if err := rows.Scan(&c.ID, &startDate); err != nil {
			return nil, err
		}
		c.StartDate = calendar.Date(startDate.Format("2006-01-02"))
		out = append(out, c)
	}
	return out, rows.Err()
}
