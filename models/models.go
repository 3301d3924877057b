package models

import (
	"time"

	"meal-order-service/calendar"
)

// Subscription statuses. A customer has at most one ACTIVE and at most one
// future PENDING subscription per brand; status moves only through the
// lifecycle job or explicit cancellation.
const (
	SubscriptionPending   = "PENDING"
	SubscriptionActive    = "ACTIVE"
	SubscriptionExpired   = "EXPIRED"
	SubscriptionCancelled = "CANCELLED"
)

// Order statuses.
const (
	OrderConfirmed = "CONFIRMED"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// Holiday types.
const (
	HolidaySpecificDate    = "SPECIFIC_DATE"
	HolidayRecurringWeekly = "RECURRING_WEEKLY"
)

// Meal type identifiers double as bucket keys in the availability view.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
)

type Subscription struct {
	ID          int           `json:"id"`
	CustomerID  int           `json:"customer_id"`
	BrandID     int           `json:"brand_id"`
	PlanID      int           `json:"plan_id"`
	CategoryID  int           `json:"category_id"`
	MealTypeIDs []string      `json:"meal_type_ids"`
	StartDate   calendar.Date `json:"start_date"`
	EndDate     calendar.Date `json:"end_date"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Holiday struct {
	ID        int           `json:"id"`
	BrandID   int           `json:"brand_id"`
	Type      string        `json:"type"`
	Name      string        `json:"name"`
	Date      calendar.Date `json:"date,omitempty"`        // SPECIFIC_DATE only
	DayOfWeek string        `json:"day_of_week,omitempty"` // RECURRING_WEEKLY only
	IsActive  bool          `json:"is_active"`
}

// Matches reports whether the holiday fires on the given date.
func (h Holiday) Matches(d calendar.Date) bool {
	switch h.Type {
	case HolidaySpecificDate:
		return h.Date == d
	case HolidayRecurringWeekly:
		return h.DayOfWeek == d.Weekday()
	}
	return false
}

// FoodItem carries the availability facets the engine filters on. An item
// is orderable for a customer/day only when every facet matches.
type FoodItem struct {
	ID            int      `json:"id"`
	BrandID       int      `json:"brand_id"`
	Name          string   `json:"name"`
	MealTypeID    string   `json:"meal_type_id"`
	CategoryID    int      `json:"category_id"`
	AvailableDays []string `json:"available_days"`
	PlanIDs       []int    `json:"plan_ids"`
	AreaIDs       []int    `json:"area_ids"`
	IsActive      bool     `json:"is_active"`
}

func (f FoodItem) AvailableOn(weekday string) bool {
	for _, d := range f.AvailableDays {
		if d == weekday {
			return true
		}
	}
	return false
}

func (f FoodItem) InPlan(planID int) bool {
	for _, p := range f.PlanIDs {
		if p == planID {
			return true
		}
	}
	return false
}

func (f FoodItem) InArea(areaID int) bool {
	for _, a := range f.AreaIDs {
		if a == areaID {
			return true
		}
	}
	return false
}

// Location is a customer delivery location inside an area.
type Location struct {
	ID         int    `json:"id"`
	CustomerID int    `json:"customer_id"`
	AreaID     int    `json:"area_id"`
	Label      string `json:"label"`
	Address    string `json:"address"`
}

type Order struct {
	ID             int           `json:"id"`
	OrderNumber    string        `json:"order_number"`
	CustomerID     int           `json:"customer_id"`
	SubscriptionID int           `json:"subscription_id"`
	OrderDate      calendar.Date `json:"order_date"`
	Status         string        `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	Items          []OrderItem   `json:"items"`
}

type OrderItem struct {
	ID                 int            `json:"id"`
	OrderID            int            `json:"order_id"`
	FoodItemID         int            `json:"food_item_id"`
	FoodItemName       string         `json:"food_item_name"`
	MealTypeID         string         `json:"meal_type_id"`
	DeliveryLocationID int            `json:"delivery_location_id"`
	Quantity           int            `json:"quantity"`
	DeliveredDate      *calendar.Date `json:"delivered_date,omitempty"`
}

// BrandSettings holds the per-brand ordering rules, lazily created with
// defaults on first access.
type BrandSettings struct {
	BrandID                int    `json:"brand_id"`
	AdvanceOrderCutoffHour int    `json:"advance_order_cutoff_hour"`
	MinAdvanceOrderDays    int    `json:"min_advance_order_days"`
	MaxAdvanceOrderDays    int    `json:"max_advance_order_days"`
	Timezone               string `json:"timezone"`
	IsActive               bool   `json:"is_active"`
}

// DayRecord is the per-date projection of the availability engine. On an
// unavailable day the meal buckets are suppressed (empty), not absent.
type DayRecord struct {
	Date                calendar.Date        `json:"date"`
	DayOfWeek           string               `json:"day_of_week"`
	IsAvailable         bool                 `json:"is_available"`
	IsHoliday           bool                 `json:"is_holiday"`
	HolidayName         string               `json:"holiday_name,omitempty"`
	AlreadyOrdered      bool                 `json:"already_ordered"`
	ExistingOrderNumber string               `json:"existing_order_number,omitempty"`
	FoodItemsByMealType map[string][]DayItem `json:"food_items_by_meal_type"`
	AvailableMealTypes  map[string]bool      `json:"available_meal_types"`
}

// DayItem is a food item projected into a day record together with the
// customer's delivery locations that fall in the item's areas.
type DayItem struct {
	FoodItem  FoodItem   `json:"food_item"`
	Locations []Location `json:"delivery_locations"`
}

type AvailableDaysResponse struct {
	Subscription  Subscription  `json:"subscription"`
	OrderingRules BrandSettings `json:"ordering_rules"`
	Days          []DayRecord   `json:"days"`
}

type CreateOrderRequest struct {
	OrderDate string                   `json:"order_date" binding:"required"`
	Items     []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CreateOrderItemRequest struct {
	FoodItemID         int `json:"food_item_id" binding:"required"`
	DeliveryLocationID int `json:"delivery_location_id" binding:"required"`
	Quantity           int `json:"quantity" binding:"required,min=1"`
}

type CreateSubscriptionRequest struct {
	CustomerID  int      `json:"customer_id" binding:"required"`
	BrandID     int      `json:"brand_id" binding:"required"`
	PlanID      int      `json:"plan_id" binding:"required"`
	CategoryID  int      `json:"category_id" binding:"required"`
	MealTypeIDs []string `json:"meal_type_ids" binding:"required,min=1"`
	StartDate   string   `json:"start_date" binding:"required"`
	EndDate     string   `json:"end_date" binding:"required"`
}

type UpdateBrandSettingsRequest struct {
	AdvanceOrderCutoffHour *int    `json:"advance_order_cutoff_hour,omitempty" binding:"omitempty,min=0,max=23"`
	MinAdvanceOrderDays    *int    `json:"min_advance_order_days,omitempty" binding:"omitempty,min=0"`
	MaxAdvanceOrderDays    *int    `json:"max_advance_order_days,omitempty" binding:"omitempty,min=0"`
	Timezone               *string `json:"timezone,omitempty"`
}

type CreateHolidayRequest struct {
	Type      string `json:"type" binding:"required,oneof=SPECIFIC_DATE RECURRING_WEEKLY"`
	Name      string `json:"name" binding:"required"`
	Date      string `json:"date,omitempty"`
	DayOfWeek string `json:"day_of_week,omitempty" binding:"omitempty,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
}

// LifecycleResult summarizes one lifecycle tick.
type LifecycleResult struct {
	ExpiredCount   int `json:"expired_count"`
	ActivatedCount int `json:"activated_count"`
}

type OrderEvent struct {
	OrderID     int       `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  int       `json:"customer_id"`
	Type        string    `json:"type"` // created, cancelled, delivered
	OrderDate   string    `json:"order_date"`
	Occurred    time.Time `json:"occurred"`
}

type LifecycleEvent struct {
	ExpiredCount   int       `json:"expired_count"`
	ActivatedCount int       `json:"activated_count"`
	Occurred       time.Time `json:"occurred"`
}
