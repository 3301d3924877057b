package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"meal-order-service/calendar"
	"meal-order-service/models"
)

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) InRange(customerID int, from, to calendar.Date) ([]models.Order, error) {
	rows, err := r.db.Query(`
		SELECT id, order_number, customer_id, subscription_id, order_date, status, created_at
		FROM orders
		WHERE customer_id = ? AND status != ? AND order_date BETWEEN ? AND ?
		ORDER BY order_date`,
		customerID, models.OrderCancelled, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *MySQLOrderRepository) FindByDate(customerID int, date calendar.Date) (*models.Order, error) {
	row := r.db.QueryRow(`
		SELECT id, order_number, customer_id, subscription_id, order_date, status, created_at
		FROM orders
		WHERE customer_id = ? AND order_date = ? AND status != ?`,
		customerID, date.String(), models.OrderCancelled)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MySQLOrderRepository) FindByID(customerID, orderID int) (*models.Order, error) {
	row := r.db.QueryRow(`
		SELECT id, order_number, customer_id, subscription_id, order_date, status, created_at
		FROM orders
		WHERE id = ? AND customer_id = ?`,
		orderID, customerID)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MySQLOrderRepository) ListForCustomer(customerID int) ([]models.Order, error) {
	rows, err := r.db.Query(`
		SELECT id, order_number, customer_id, subscription_id, order_date, status, created_at
		FROM orders
		WHERE customer_id = ?
		ORDER BY order_date DESC`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Create inserts the order row and its items atomically. The order number
// is ORD + YYMMDD + a 4-digit per-day sequence drawn from order_sequences
// with an atomic upsert, so concurrent writers never collide. The unique
// key on (customer_id, order_date, active) turns a lost duplicate-check
// race into a 1062, surfaced as ErrDuplicateOrder.
func (r *MySQLOrderRepository) Create(order *models.Order) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	seqRes, err := tx.Exec(`
		INSERT INTO order_sequences (seq_date, seq) VALUES (?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)`,
		order.OrderDate.String())
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	seq, err := seqRes.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	t, _ := time.Parse("2006-01-02", order.OrderDate.String())
	order.OrderNumber = fmt.Sprintf("ORD%s%04d", t.Format("060102"), seq)
	order.Status = models.OrderConfirmed
	order.CreatedAt = time.Now().UTC()

	res, err := tx.Exec(`
		INSERT INTO orders (order_number, customer_id, subscription_id, order_date, status, active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)`,
		order.OrderNumber, order.CustomerID, order.SubscriptionID,
		order.OrderDate.String(), order.Status, order.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == 1062 {
			return ErrDuplicateOrder
		}
		return err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	order.ID = int(orderID)

	for i := range order.Items {
		item := &order.Items[i]
		itemRes, err := tx.Exec(`
			INSERT INTO order_items (order_id, food_item_id, food_item_name, meal_type_id, delivery_location_id, quantity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, item.FoodItemID, item.FoodItemName, item.MealTypeID,
			item.DeliveryLocationID, item.Quantity)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		itemID, err := itemRes.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		item.ID = int(itemID)
		item.OrderID = order.ID
	}

	return tx.Commit()
}

// Cancel clears the active marker alongside the status flip so the unique
// key frees the day for a replacement order.
func (r *MySQLOrderRepository) Cancel(customerID, orderID int) error {
	res, err := r.db.Exec(`
		UPDATE orders SET status = ?, active = NULL
		WHERE id = ? AND customer_id = ? AND status = ?`,
		models.OrderCancelled, orderID, customerID, models.OrderConfirmed)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLOrderRepository) MarkItemDelivered(customerID, orderID, itemID int, date calendar.Date) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}

	res, err := tx.Exec(`
		UPDATE order_items oi
		JOIN orders o ON o.id = oi.order_id
		SET oi.delivered_date = ?
		WHERE oi.id = ? AND oi.order_id = ? AND o.customer_id = ? AND o.status = ?`,
		date.String(), itemID, orderID, customerID, models.OrderConfirmed)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		_ = tx.Rollback()
		return false, ErrNotFound
	}

	var remaining int
	if err := tx.QueryRow(`
		SELECT COUNT(*) FROM order_items
		WHERE order_id = ? AND delivered_date IS NULL`,
		orderID).Scan(&remaining); err != nil {
		_ = tx.Rollback()
		return false, err
	}

	allDelivered := remaining == 0
	if allDelivered {
		if _, err := tx.Exec(`UPDATE orders SET status = ? WHERE id = ?`,
			models.OrderDelivered, orderID); err != nil {
			_ = tx.Rollback()
			return false, err
		}
	}

	return allDelivered, tx.Commit()
}

func (r *MySQLOrderRepository) attachItems(o *models.Order) error {
	rows, err := r.db.Query(`
		SELECT id, order_id, food_item_id, food_item_name, meal_type_id, delivery_location_id, quantity, delivered_date
		FROM order_items
		WHERE order_id = ?
		ORDER BY id`,
		o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var delivered sql.NullTime
		if err := rows.Scan(&item.ID, &item.OrderID, &item.FoodItemID, &item.FoodItemName,
			&item.MealTypeID, &item.DeliveryLocationID, &item.Quantity, &delivered); err != nil {
			return err
		}
		if delivered.Valid {
			d := calendar.Date(delivered.Time.Format("2006-01-02"))
			item.DeliveredDate = &d
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (models.Order, error) {
	var o models.Order
	var date time.Time
	err := s.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.SubscriptionID,
		&date, &o.Status, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	o.OrderDate = calendar.Date(date.Format("2006-01-02"))
	return o, nil
}
