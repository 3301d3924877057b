package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"meal-order-service/config"
)

// InitDB opens the MySQL pool and bootstraps the schema. The returned
// handle is injected into the repositories; there is no package-level DB.
func InitDB(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// ensureSchema creates the tables if absent. The orders table carries a
// nullable `active` marker (1 while non-cancelled, NULL after cancel) so
// the unique key enforces at most one live order per customer per day
// while still allowing re-ordering after a cancellation. order_sequences
// backs the per-day atomic order-number counter.
func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS brand_settings (
			brand_id INT PRIMARY KEY,
			advance_order_cutoff_hour INT NOT NULL,
			min_advance_order_days INT NOT NULL,
			max_advance_order_days INT NOT NULL,
			timezone VARCHAR(64) NOT NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS holidays (
			id INT AUTO_INCREMENT PRIMARY KEY,
			brand_id INT NOT NULL,
			type VARCHAR(32) NOT NULL,
			name VARCHAR(128) NOT NULL,
			date DATE NULL,
			day_of_week VARCHAR(16) NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			KEY idx_holidays_brand (brand_id)
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id INT AUTO_INCREMENT PRIMARY KEY,
			customer_id INT NOT NULL,
			brand_id INT NOT NULL,
			plan_id INT NOT NULL,
			category_id INT NOT NULL,
			meal_type_ids VARCHAR(128) NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL,
			KEY idx_subscriptions_customer (customer_id, status),
			KEY idx_subscriptions_expiry (status, end_date)
		)`,
		`CREATE TABLE IF NOT EXISTS food_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			brand_id INT NOT NULL,
			name VARCHAR(128) NOT NULL,
			meal_type_id VARCHAR(32) NOT NULL,
			category_id INT NOT NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			KEY idx_food_items_brand (brand_id, category_id)
		)`,
		`CREATE TABLE IF NOT EXISTS food_item_days (
			food_item_id INT NOT NULL,
			day_of_week VARCHAR(16) NOT NULL,
			PRIMARY KEY (food_item_id, day_of_week)
		)`,
		`CREATE TABLE IF NOT EXISTS food_item_plans (
			food_item_id INT NOT NULL,
			plan_id INT NOT NULL,
			PRIMARY KEY (food_item_id, plan_id)
		)`,
		`CREATE TABLE IF NOT EXISTS food_item_areas (
			food_item_id INT NOT NULL,
			area_id INT NOT NULL,
			PRIMARY KEY (food_item_id, area_id)
		)`,
		`CREATE TABLE IF NOT EXISTS customer_locations (
			id INT AUTO_INCREMENT PRIMARY KEY,
			customer_id INT NOT NULL,
			area_id INT NOT NULL,
			label VARCHAR(64) NOT NULL,
			address VARCHAR(256) NOT NULL,
			KEY idx_locations_customer (customer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_number VARCHAR(16) NOT NULL UNIQUE,
			customer_id INT NOT NULL,
			subscription_id INT NOT NULL,
			order_date DATE NOT NULL,
			status VARCHAR(16) NOT NULL,
			active TINYINT(1) NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			UNIQUE KEY uq_orders_customer_day (customer_id, order_date, active),
			KEY idx_orders_subscription (subscription_id)
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			food_item_id INT NOT NULL,
			food_item_name VARCHAR(128) NOT NULL,
			meal_type_id VARCHAR(32) NOT NULL,
			delivery_location_id INT NOT NULL,
			quantity INT NOT NULL,
			delivered_date DATE NULL,
			KEY idx_order_items_order (order_id)
		)`,
		`CREATE TABLE IF NOT EXISTS order_sequences (
			seq_date DATE PRIMARY KEY,
			seq INT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}
	return nil
}

func CloseDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}
