package services

import (
	"errors"
	"time"

	"meal-order-service/availability"
	"meal-order-service/calendar"
	"meal-order-service/models"
	"meal-order-service/repositories"
)

// SettingsProvider is the slice of the cached settings/holiday provider
// the engine consumes. A cache hit and a miss look identical through it.
type SettingsProvider interface {
	BrandSettings(brandID int) (models.BrandSettings, error)
	Holidays(brandID int) ([]models.Holiday, error)
}

// AvailabilityService drives the read path: window computation plus the
// day-by-day enumeration. Everything it needs is constructor-injected so
// the engine is a function of (dependencies, request).
type AvailabilityService struct {
	subscriptions repositories.SubscriptionRepository
	orders        repositories.OrderRepository
	catalog       repositories.CatalogRepository
	provider      SettingsProvider
	now           func() time.Time
}

func NewAvailabilityService(
	subscriptions repositories.SubscriptionRepository,
	orders repositories.OrderRepository,
	catalog repositories.CatalogRepository,
	provider SettingsProvider,
	now func() time.Time,
) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		subscriptions: subscriptions,
		orders:        orders,
		catalog:       catalog,
		provider:      provider,
		now:           now,
	}
}

// AvailableDays produces the orderable-calendar projection for a
// customer. An empty day list is a valid "no orderable days" outcome,
// not an error.
func (s *AvailabilityService) AvailableDays(customerID int) (*models.AvailableDaysResponse, error) {
	sub, err := s.subscriptions.ActiveForCustomer(customerID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNoActiveSubscription
	}
	if err != nil {
		return nil, err
	}

	locations, err := s.catalog.LocationsForCustomer(customerID)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, ErrNoDeliveryLocation
	}

	settings, err := s.provider.BrandSettings(sub.BrandID)
	if err != nil {
		return nil, err
	}
	loc, err := calendar.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, err
	}

	resp := &models.AvailableDaysResponse{
		Subscription:  *sub,
		OrderingRules: settings,
		Days:          []models.DayRecord{},
	}

	window := availability.ComputeWindow(s.now(), loc, settings, sub)
	if window.Empty {
		return resp, nil
	}

	orders, err := s.orders.InRange(customerID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	holidays, err := s.provider.Holidays(sub.BrandID)
	if err != nil {
		return nil, err
	}
	items, err := s.catalog.FindForSubscription(sub, areaIDs(locations))
	if err != nil {
		return nil, err
	}

	resp.Days = availability.Enumerate(availability.EnumerateInput{
		Window:       window,
		Subscription: sub,
		Holidays:     holidays,
		Orders:       orders,
		FoodItems:    items,
		Locations:    locations,
	})
	return resp, nil
}

func areaIDs(locations []models.Location) []int {
	ids := make([]int, 0, len(locations))
	for _, l := range locations {
		ids = append(ids, l.AreaID)
	}
	return ids
}
