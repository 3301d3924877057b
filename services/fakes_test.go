package services

import (
	"time"

	"meal-order-service/calendar"
	"meal-order-service/models"
	"meal-order-service/repositories"
)

type fakeSubscriptionRepo struct {
	active  *models.Subscription
	pending bool
	created []*models.Subscription
}

func (f *fakeSubscriptionRepo) ActiveForCustomer(customerID int) (*models.Subscription, error) {
	if f.active == nil || f.active.CustomerID != customerID {
		return nil, repositories.ErrNotFound
	}
	sub := *f.active
	return &sub, nil
}

func (f *fakeSubscriptionRepo) Create(sub *models.Subscription) error {
	sub.ID = len(f.created) + 100
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeSubscriptionRepo) HasPending(customerID, brandID int) (bool, error) {
	return f.pending, nil
}

func (f *fakeSubscriptionRepo) Cancel(subscriptionID int) error {
	if f.active == nil || f.active.ID != subscriptionID {
		return repositories.ErrNotFound
	}
	f.active.Status = models.SubscriptionCancelled
	return nil
}

type fakeOrderRepo struct {
	orders      []models.Order
	createErr   error
	nextOrderID int
}

func (f *fakeOrderRepo) InRange(customerID int, from, to calendar.Date) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID && o.Status != models.OrderCancelled &&
			!o.OrderDate.Before(from) && !o.OrderDate.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindByDate(customerID int, date calendar.Date) (*models.Order, error) {
	for i := range f.orders {
		o := f.orders[i]
		if o.CustomerID == customerID && o.OrderDate == date && o.Status != models.OrderCancelled {
			return &o, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) FindByID(customerID, orderID int) (*models.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == orderID && f.orders[i].CustomerID == customerID {
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) ListForCustomer(customerID int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) Create(order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	// Mirror the store: the unique key is the last line of defense.
	for _, o := range f.orders {
		if o.CustomerID == order.CustomerID && o.OrderDate == order.OrderDate && o.Status != models.OrderCancelled {
			return repositories.ErrDuplicateOrder
		}
	}
	f.nextOrderID++
	order.ID = f.nextOrderID
	order.Status = models.OrderConfirmed
	order.OrderNumber = "ORD2403070001"
	order.CreatedAt = time.Now()
	f.orders = append(f.orders, *order)
	return nil
}

func (f *fakeOrderRepo) Cancel(customerID, orderID int) error {
	for i := range f.orders {
		o := &f.orders[i]
		if o.ID == orderID && o.CustomerID == customerID && o.Status == models.OrderConfirmed {
			o.Status = models.OrderCancelled
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeOrderRepo) MarkItemDelivered(customerID, orderID, itemID int, date calendar.Date) (bool, error) {
	for i := range f.orders {
		o := &f.orders[i]
		if o.ID != orderID || o.CustomerID != customerID {
			continue
		}
		remaining := 0
		found := false
		for j := range o.Items {
			if o.Items[j].ID == itemID {
				o.Items[j].DeliveredDate = &date
				found = true
			}
			if o.Items[j].DeliveredDate == nil {
				remaining++
			}
		}
		if !found {
			return false, repositories.ErrNotFound
		}
		if remaining == 0 {
			o.Status = models.OrderDelivered
			return true, nil
		}
		return false, nil
	}
	return false, repositories.ErrNotFound
}

type fakeCatalogRepo struct {
	items     []models.FoodItem
	locations []models.Location
}

func (f *fakeCatalogRepo) FindForSubscription(sub *models.Subscription, areaIDs []int) ([]models.FoodItem, error) {
	areas := make(map[int]bool, len(areaIDs))
	for _, a := range areaIDs {
		areas[a] = true
	}
	mealTypes := make(map[string]bool, len(sub.MealTypeIDs))
	for _, mt := range sub.MealTypeIDs {
		mealTypes[mt] = true
	}

	var out []models.FoodItem
	for _, item := range f.items {
		if !item.IsActive || item.BrandID != sub.BrandID || item.CategoryID != sub.CategoryID {
			continue
		}
		if !mealTypes[item.MealTypeID] || !item.InPlan(sub.PlanID) {
			continue
		}
		inArea := false
		for _, a := range item.AreaIDs {
			if areas[a] {
				inArea = true
				break
			}
		}
		if inArea {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) FindItemsByIDs(ids []int) ([]models.FoodItem, error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.FoodItem
	for _, item := range f.items {
		if want[item.ID] {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) LocationsForCustomer(customerID int) ([]models.Location, error) {
	var out []models.Location
	for _, l := range f.locations {
		if l.CustomerID == customerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) LocationsByIDs(ids []int) ([]models.Location, error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Location
	for _, l := range f.locations {
		if want[l.ID] {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeProvider struct {
	settings models.BrandSettings
	holidays []models.Holiday
}

func (f *fakeProvider) BrandSettings(brandID int) (models.BrandSettings, error) {
	s := f.settings
	s.BrandID = brandID
	return s, nil
}

func (f *fakeProvider) Holidays(brandID int) ([]models.Holiday, error) {
	return f.holidays, nil
}

type fakeOrderPublisher struct {
	events []models.OrderEvent
}

func (f *fakeOrderPublisher) PublishOrderEvent(event models.OrderEvent) error {
	f.events = append(f.events, event)
	return nil
}

// Shared fixtures.

func fixedNow() time.Time {
	// 2024-03-05 10:00 UTC, before the 18:00 cutoff.
	return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
}

func testSettings() models.BrandSettings {
	return models.BrandSettings{
		AdvanceOrderCutoffHour: 18,
		MinAdvanceOrderDays:    1,
		MaxAdvanceOrderDays:    10,
		Timezone:               "UTC",
		IsActive:               true,
	}
}

func testSubscription() *models.Subscription {
	return &models.Subscription{
		ID:          1,
		CustomerID:  42,
		BrandID:     7,
		PlanID:      3,
		CategoryID:  2,
		MealTypeIDs: []string{models.MealLunch, models.MealDinner},
		StartDate:   "2024-03-01",
		EndDate:     "2024-03-31",
		Status:      models.SubscriptionActive,
	}
}

func testFoodItem(id int, mealType string) models.FoodItem {
	return models.FoodItem{
		ID:         id,
		BrandID:    7,
		Name:       "Item " + mealType,
		MealTypeID: mealType,
		CategoryID: 2,
		AvailableDays: []string{
			"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
		},
		PlanIDs:  []int{3},
		AreaIDs:  []int{10},
		IsActive: true,
	}
}

func testLocation() models.Location {
	return models.Location{ID: 5, CustomerID: 42, AreaID: 10, Label: "Home", Address: "1 Main St"}
}
