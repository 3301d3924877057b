package repositories

import (
	"errors"

	"meal-order-service/calendar"
	"meal-order-service/models"
)

var (
	// ErrNotFound maps to a 404 at the API boundary.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateOrder is the canonical duplicate-order signal, raised by
	// the unique key on (customer_id, order_date, active) at insert time.
	ErrDuplicateOrder = errors.New("duplicate order for date")
)

type SubscriptionRepository interface {
	// ActiveForCustomer returns the customer's single ACTIVE subscription.
	ActiveForCustomer(customerID int) (*models.Subscription, error)
	Create(sub *models.Subscription) error
	HasPending(customerID, brandID int) (bool, error)
	// Cancel flips the subscription to CANCELLED and cascade-cancels its
	// non-cancelled orders in the same transaction.
	Cancel(subscriptionID int) error
}

type OrderRepository interface {
	// InRange returns the customer's non-cancelled orders with
	// from <= order_date <= to.
	InRange(customerID int, from, to calendar.Date) ([]models.Order, error)
	FindByDate(customerID int, date calendar.Date) (*models.Order, error)
	FindByID(customerID, orderID int) (*models.Order, error)
	ListForCustomer(customerID int) ([]models.Order, error)
	// Create inserts the order and its items in one transaction, drawing
	// the order number from the per-day atomic sequence. Returns
	// ErrDuplicateOrder if a live order already exists for the date.
	Create(order *models.Order) error
	Cancel(customerID, orderID int) error
	// MarkItemDelivered stamps the item and reports whether every item of
	// the order is now delivered (the caller-visible order status flips
	// to DELIVERED inside the same transaction when so).
	MarkItemDelivered(customerID, orderID, itemID int, date calendar.Date) (bool, error)
}

type CatalogRepository interface {
	// FindForSubscription returns active food items matching the
	// subscription's plan, category and meal types, available in at least
	// one of the given areas.
	FindForSubscription(sub *models.Subscription, areaIDs []int) ([]models.FoodItem, error)
	FindItemsByIDs(ids []int) ([]models.FoodItem, error)
	LocationsForCustomer(customerID int) ([]models.Location, error)
	LocationsByIDs(ids []int) ([]models.Location, error)
}

type SettingsRepository interface {
	// GetOrCreateSettings lazily inserts defaults on first access;
	// concurrent first callers race harmlessly (INSERT IGNORE).
	GetOrCreateSettings(brandID int, defaults models.BrandSettings) (models.BrandSettings, error)
	UpdateSettings(settings models.BrandSettings) error
	ActiveHolidays(brandID int) ([]models.Holiday, error)
	CreateHoliday(h *models.Holiday) error
	DeleteHoliday(id int) (brandID int, err error)
}
