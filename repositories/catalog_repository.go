package repositories

import (
	"database/sql"
	"strings"

	"meal-order-service/models"
)

type MySQLCatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *MySQLCatalogRepository {
	return &MySQLCatalogRepository{db: db}
}

const foodItemSelect = `
	SELECT f.id, f.brand_id, f.name, f.meal_type_id, f.category_id, f.is_active,
	       COALESCE((SELECT GROUP_CONCAT(d.day_of_week) FROM food_item_days d WHERE d.food_item_id = f.id), ''),
	       COALESCE((SELECT GROUP_CONCAT(p.plan_id) FROM food_item_plans p WHERE p.food_item_id = f.id), ''),
	       COALESCE((SELECT GROUP_CONCAT(a.area_id) FROM food_item_areas a WHERE a.food_item_id = f.id), '')
	FROM food_items f`

// FindForSubscription narrows by the facets the database can check cheaply
// (brand, category, meal type, plan, area, active); per-day filtering
// happens in the availability engine.
func (r *MySQLCatalogRepository) FindForSubscription(sub *models.Subscription, areaIDs []int) ([]models.FoodItem, error) {
	if len(sub.MealTypeIDs) == 0 || len(areaIDs) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(foodItemSelect)
	sb.WriteString(`
	WHERE f.brand_id = ? AND f.category_id = ? AND f.is_active = 1
	  AND f.meal_type_id IN (` + placeholders(len(sub.MealTypeIDs)) + `)
	  AND EXISTS (SELECT 1 FROM food_item_plans p WHERE p.food_item_id = f.id AND p.plan_id = ?)
	  AND EXISTS (SELECT 1 FROM food_item_areas a WHERE a.food_item_id = f.id AND a.area_id IN (` + placeholders(len(areaIDs)) + `))`)

	args := []any{sub.BrandID, sub.CategoryID}
	for _, mt := range sub.MealTypeIDs {
		args = append(args, mt)
	}
	args = append(args, sub.PlanID)
	for _, a := range areaIDs {
		args = append(args, a)
	}

	return r.queryItems(sb.String(), args...)
}

func (r *MySQLCatalogRepository) FindItemsByIDs(ids []int) ([]models.FoodItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryItems(foodItemSelect+` WHERE f.id IN (`+placeholders(len(ids))+`)`, args...)
}

func (r *MySQLCatalogRepository) queryItems(query string, args ...any) ([]models.FoodItem, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.FoodItem
	for rows.Next() {
		var f models.FoodItem
		var days, plans, areas string
		if err := rows.Scan(&f.ID, &f.BrandID, &f.Name, &f.MealTypeID, &f.CategoryID,
			&f.IsActive, &days, &plans, &areas); err != nil {
			return nil, err
		}
		if days != "" {
			f.AvailableDays = strings.Split(days, ",")
		}
		f.PlanIDs = atoiList(plans)
		f.AreaIDs = atoiList(areas)
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *MySQLCatalogRepository) LocationsForCustomer(customerID int) ([]models.Location, error) {
	return r.queryLocations(`
		SELECT id, customer_id, area_id, label, address
		FROM customer_locations
		WHERE customer_id = ?`, customerID)
}

func (r *MySQLCatalogRepository) LocationsByIDs(ids []int) ([]models.Location, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryLocations(`
		SELECT id, customer_id, area_id, label, address
		FROM customer_locations
		WHERE id IN (`+placeholders(len(ids))+`)`, args...)
}

func (r *MySQLCatalogRepository) queryLocations(query string, args ...any) ([]models.Location, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.AreaID, &l.Label, &l.Address); err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
