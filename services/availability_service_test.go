package services

import (
	"errors"
	"testing"

	"meal-order-service/models"
)

func newAvailabilityService(subs *fakeSubscriptionRepo, orders *fakeOrderRepo, catalog *fakeCatalogRepo, provider *fakeProvider) *AvailabilityService {
	return NewAvailabilityService(subs, orders, catalog, provider, fixedNow)
}

func TestAvailableDaysHappyPath(t *testing.T) {
	subs, orders, catalog, provider, _ := validSetup()
	svc := newAvailabilityService(subs, orders, catalog, provider)

	resp, err := svc.AvailableDays(42)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Subscription.ID != 1 {
		t.Errorf("subscription = %+v", resp.Subscription)
	}
	if resp.OrderingRules.AdvanceOrderCutoffHour != 18 {
		t.Errorf("ordering rules = %+v", resp.OrderingRules)
	}
	// 2024-03-05 10:00, min 1, max 10: window [03-06, 03-15], 10 days.
	if len(resp.Days) != 10 {
		t.Fatalf("len(days) = %d, want 10", len(resp.Days))
	}
	if resp.Days[0].Date != "2024-03-06" || resp.Days[9].Date != "2024-03-15" {
		t.Errorf("window = [%s, %s]", resp.Days[0].Date, resp.Days[9].Date)
	}
	first := resp.Days[0]
	if !first.IsAvailable {
		t.Error("first day should be available")
	}
	if len(first.FoodItemsByMealType[models.MealLunch]) != 1 {
		t.Errorf("lunch bucket = %d items, want 1", len(first.FoodItemsByMealType[models.MealLunch]))
	}
}

func TestAvailableDaysNoActiveSubscription(t *testing.T) {
	subs, orders, catalog, provider, _ := validSetup()
	subs.active = nil
	svc := newAvailabilityService(subs, orders, catalog, provider)

	if _, err := svc.AvailableDays(42); !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("err = %v, want ErrNoActiveSubscription", err)
	}
}

func TestAvailableDaysNoDeliveryLocation(t *testing.T) {
	subs, orders, catalog, provider, _ := validSetup()
	catalog.locations = nil
	svc := newAvailabilityService(subs, orders, catalog, provider)

	if _, err := svc.AvailableDays(42); !errors.Is(err, ErrNoDeliveryLocation) {
		t.Fatalf("err = %v, want ErrNoDeliveryLocation", err)
	}
}

// Expiring subscription: empty window is success with zero days, not an
// error.
func TestAvailableDaysEmptyWindow(t *testing.T) {
	subs, orders, catalog, provider, _ := validSetup()
	subs.active.EndDate = "2024-03-05"
	svc := newAvailabilityService(subs, orders, catalog, provider)

	resp, err := svc.AvailableDays(42)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Days) != 0 {
		t.Errorf("len(days) = %d, want 0", len(resp.Days))
	}
}

func TestAvailableDaysMarksHolidaysAndOrders(t *testing.T) {
	subs, orders, catalog, provider, _ := validSetup()
	provider.holidays = []models.Holiday{
		{BrandID: 7, Type: models.HolidayRecurringWeekly, DayOfWeek: "Friday", Name: "Weekend", IsActive: true},
	}
	orders.orders = []models.Order{{
		ID: 1, OrderNumber: "ORD2403070001", CustomerID: 42,
		OrderDate: "2024-03-07", Status: models.OrderConfirmed,
	}}
	svc := newAvailabilityService(subs, orders, catalog, provider)

	resp, err := svc.AvailableDays(42)
	if err != nil {
		t.Fatal(err)
	}

	byDate := make(map[string]models.DayRecord)
	for _, d := range resp.Days {
		byDate[d.Date.String()] = d
	}

	ordered := byDate["2024-03-07"]
	if !ordered.AlreadyOrdered || ordered.IsAvailable || ordered.ExistingOrderNumber != "ORD2403070001" {
		t.Errorf("ordered day = %+v", ordered)
	}

	friday := byDate["2024-03-08"]
	if !friday.IsHoliday || friday.IsAvailable {
		t.Errorf("friday = %+v", friday)
	}
	for meal, bucket := range friday.FoodItemsByMealType {
		if len(bucket) != 0 {
			t.Errorf("holiday bucket %s has %d items", meal, len(bucket))
		}
	}
}

// The write path must not trust the read path: a brand-settings change in
// between is honored because the window is recomputed fresh.
func TestWritePathRecomputesWindow(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	avail := newAvailabilityService(subs, orders, catalog, provider)
	orderSvc := newOrderService(subs, orders, catalog, provider, pub)

	resp, err := avail.AvailableDays(42)
	if err != nil {
		t.Fatal(err)
	}
	lastDay := resp.Days[len(resp.Days)-1].Date // 2024-03-15

	// Admin tightens the max-advance rule after the customer loaded the
	// calendar.
	provider.settings.MaxAdvanceOrderDays = 5

	req := validRequest()
	req.OrderDate = lastDay.String()
	_, err = orderSvc.CreateOrder(42, req)
	wantReason(t, err, ReasonDateTooLate)
}
