package repositories

import (
	"database/sql"
	"errors"

	"meal-order-service/calendar"
	"meal-order-service/models"
)

type MySQLSettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *MySQLSettingsRepository {
	return &MySQLSettingsRepository{db: db}
}

// GetOrCreateSettings inserts defaults with INSERT IGNORE so concurrent
// first callers converge on one row, then reads it back.
func (r *MySQLSettingsRepository) GetOrCreateSettings(brandID int, defaults models.BrandSettings) (models.BrandSettings, error) {
	if _, err := r.db.Exec(`
		INSERT IGNORE INTO brand_settings (brand_id, advance_order_cutoff_hour, min_advance_order_days, max_advance_order_days, timezone, is_active)
		VALUES (?, ?, ?, ?, ?, 1)`,
		brandID, defaults.AdvanceOrderCutoffHour, defaults.MinAdvanceOrderDays,
		defaults.MaxAdvanceOrderDays, defaults.Timezone); err != nil {
		return models.BrandSettings{}, err
	}

	var s models.BrandSettings
	err := r.db.QueryRow(`
		SELECT brand_id, advance_order_cutoff_hour, min_advance_order_days, max_advance_order_days, timezone, is_active
		FROM brand_settings
		WHERE brand_id = ?`,
		brandID).Scan(&s.BrandID, &s.AdvanceOrderCutoffHour, &s.MinAdvanceOrderDays,
		&s.MaxAdvanceOrderDays, &s.Timezone, &s.IsActive)
	return s, err
}

func (r *MySQLSettingsRepository) UpdateSettings(settings models.BrandSettings) error {
	res, err := r.db.Exec(`
		UPDATE brand_settings
		SET advance_order_cutoff_hour = ?, min_advance_order_days = ?, max_advance_order_days = ?, timezone = ?
		WHERE brand_id = ?`,
		settings.AdvanceOrderCutoffHour, settings.MinAdvanceOrderDays,
		settings.MaxAdvanceOrderDays, settings.Timezone, settings.BrandID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLSettingsRepository) ActiveHolidays(brandID int) ([]models.Holiday, error) {
	rows, err := r.db.Query(`
		SELECT id, brand_id, type, name, date, day_of_week, is_active
		FROM holidays
		WHERE brand_id = ? AND is_active = 1`,
		brandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []models.Holiday
	for rows.Next() {
		var h models.Holiday
		var date sql.NullTime
		var dow sql.NullString
		if err := rows.Scan(&h.ID, &h.BrandID, &h.Type, &h.Name, &date, &dow, &h.IsActive); err != nil {
			return nil, err
		}
		if date.Valid {
			h.Date = calendar.Date(date.Time.Format("2006-01-02"))
		}
		if dow.Valid {
			h.DayOfWeek = dow.String
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (r *MySQLSettingsRepository) CreateHoliday(h *models.Holiday) error {
	var date any
	if h.Type == models.HolidaySpecificDate {
		date = h.Date.String()
	}
	var dow any
	if h.Type == models.HolidayRecurringWeekly {
		dow = h.DayOfWeek
	}
	res, err := r.db.Exec(`
		INSERT INTO holidays (brand_id, type, name, date, day_of_week, is_active)
		VALUES (?, ?, ?, ?, ?, 1)`,
		h.BrandID, h.Type, h.Name, date, dow)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = int(id)
	h.IsActive = true
	return nil
}

func (r *MySQLSettingsRepository) DeleteHoliday(id int) (int, error) {
	var brandID int
	err := r.db.QueryRow(`SELECT brand_id FROM holidays WHERE id = ?`, id).Scan(&brandID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	// Soft delete; history stays queryable for past-day views.
	if _, err := r.db.Exec(`UPDATE holidays SET is_active = 0 WHERE id = ?`, id); err != nil {
		return 0, err
	}
	return brandID, nil
}
