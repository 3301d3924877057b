package repositories

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"meal-order-service/calendar"
	"meal-order-service/models"
)

type MySQLSubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *MySQLSubscriptionRepository {
	return &MySQLSubscriptionRepository{db: db}
}

func (r *MySQLSubscriptionRepository) ActiveForCustomer(customerID int) (*models.Subscription, error) {
	row := r.db.QueryRow(`
		SELECT id, customer_id, brand_id, plan_id, category_id, meal_type_ids, start_date, end_date, status, created_at
		FROM subscriptions
		WHERE customer_id = ? AND status = ?`,
		customerID, models.SubscriptionActive)

	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *MySQLSubscriptionRepository) Create(sub *models.Subscription) error {
	sub.CreatedAt = time.Now().UTC()
	res, err := r.db.Exec(`
		INSERT INTO subscriptions (customer_id, brand_id, plan_id, category_id, meal_type_ids, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.CustomerID, sub.BrandID, sub.PlanID, sub.CategoryID,
		strings.Join(sub.MealTypeIDs, ","),
		sub.StartDate.String(), sub.EndDate.String(), sub.Status, sub.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sub.ID = int(id)
	return nil
}

func (r *MySQLSubscriptionRepository) HasPending(customerID, brandID int) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM subscriptions
		WHERE customer_id = ? AND brand_id = ? AND status = ?`,
		customerID, brandID, models.SubscriptionPending).Scan(&count)
	return count > 0, err
}

// Cancel flips the subscription to CANCELLED and cascade-cancels its live
// orders in the same transaction; a reader never sees a cancelled
// subscription with confirmed orders still attached.
func (r *MySQLSubscriptionRepository) Cancel(subscriptionID int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	res, err := tx.Exec(`
		UPDATE subscriptions SET status = ?
		WHERE id = ? AND status IN (?, ?)`,
		models.SubscriptionCancelled, subscriptionID,
		models.SubscriptionPending, models.SubscriptionActive)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		_ = tx.Rollback()
		return ErrNotFound
	}

	if _, err := tx.Exec(`
		UPDATE orders SET status = ?, active = NULL
		WHERE subscription_id = ? AND status != ?`,
		models.OrderCancelled, subscriptionID, models.OrderCancelled); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func scanSubscription(s rowScanner) (models.Subscription, error) {
	var sub models.Subscription
	var mealTypes string
	var start, end time.Time
	err := s.Scan(&sub.ID, &sub.CustomerID, &sub.BrandID, &sub.PlanID, &sub.CategoryID,
		&mealTypes, &start, &end, &sub.Status, &sub.CreatedAt)
	if err != nil {
		return sub, err
	}
	sub.StartDate = calendar.Date(start.Format("2006-01-02"))
	sub.EndDate = calendar.Date(end.Format("2006-01-02"))
	if mealTypes != "" {
		sub.MealTypeIDs = strings.Split(mealTypes, ",")
	}
	return sub, nil
}

// atoiList is shared by the catalog repository's facet scans.
func atoiList(csv string) []int {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}
