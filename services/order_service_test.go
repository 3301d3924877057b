package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"meal-order-service/models"
	"meal-order-service/repositories"
)

func newOrderService(subs *fakeSubscriptionRepo, orders *fakeOrderRepo, catalog *fakeCatalogRepo, provider *fakeProvider, pub *fakeOrderPublisher) *OrderService {
	return NewOrderService(subs, orders, catalog, provider, pub, fixedNow)
}

func validSetup() (*fakeSubscriptionRepo, *fakeOrderRepo, *fakeCatalogRepo, *fakeProvider, *fakeOrderPublisher) {
	subs := &fakeSubscriptionRepo{active: testSubscription()}
	orders := &fakeOrderRepo{}
	catalog := &fakeCatalogRepo{
		items:     []models.FoodItem{testFoodItem(1, models.MealLunch), testFoodItem(2, models.MealDinner)},
		locations: []models.Location{testLocation()},
	}
	provider := &fakeProvider{settings: testSettings()}
	return subs, orders, catalog, provider, &fakeOrderPublisher{}
}

func validRequest() models.CreateOrderRequest {
	return models.CreateOrderRequest{
		OrderDate: "2024-03-07",
		Items: []models.CreateOrderItemRequest{
			{FoodItemID: 1, DeliveryLocationID: 5, Quantity: 1},
			{FoodItemID: 2, DeliveryLocationID: 5, Quantity: 1},
		},
	}
}

func wantReason(t *testing.T, err error, reason string) {
	t.Helper()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Reason != reason {
		t.Fatalf("reason = %s, want %s (message %q)", vErr.Reason, reason, vErr.Message)
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	svc := newOrderService(subs, orders, catalog, provider, pub)

	order, err := svc.CreateOrder(42, validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != models.OrderConfirmed {
		t.Errorf("status = %s", order.Status)
	}
	if order.OrderNumber == "" {
		t.Error("order number missing")
	}
	if len(order.Items) != 2 {
		t.Errorf("items = %d, want 2", len(order.Items))
	}
	if len(pub.events) != 1 || pub.events[0].Type != "created" {
		t.Errorf("events = %+v, want one created event", pub.events)
	}
}

func TestCreateOrderNoActiveSubscription(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	subs.active = nil
	svc := newOrderService(subs, orders, catalog, provider, pub)

	_, err := svc.CreateOrder(42, validRequest())
	if !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("err = %v, want ErrNoActiveSubscription", err)
	}
}

func TestCreateOrderDateValidation(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		reason string
	}{
		{"garbage date", "07-03-2024", ReasonInvalidDate},
		{"below minimum lead", "2024-03-05", ReasonDateTooEarly},
		{"beyond max advance", "2024-03-16", ReasonDateTooLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, orders, catalog, provider, pub := validSetup()
			svc := newOrderService(subs, orders, catalog, provider, pub)

			req := validRequest()
			req.OrderDate = tt.date
			_, err := svc.CreateOrder(42, req)
			wantReason(t, err, tt.reason)
		})
	}
}

func TestCreateOrderAfterCutoffLosesTomorrow(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	svc := NewOrderService(subs, orders, catalog, provider, pub, func() time.Time { return fixedNow().Add(9 * time.Hour) })

	// 19:00 local, cutoff 18: tomorrow is no longer orderable.
	req := validRequest()
	req.OrderDate = "2024-03-06"
	_, err := svc.CreateOrder(42, req)
	wantReason(t, err, ReasonDateBeforeCutoff)
}

func TestCreateOrderOutsideSubscription(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	subs.active.EndDate = "2024-03-06"
	svc := newOrderService(subs, orders, catalog, provider, pub)

	_, err := svc.CreateOrder(42, validRequest())
	wantReason(t, err, ReasonOutsideSubscription)
}

func TestCreateOrderDuplicateDay(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	orders.orders = []models.Order{{
		ID: 1, OrderNumber: "ORD2403070001", CustomerID: 42,
		OrderDate: "2024-03-07", Status: models.OrderConfirmed,
	}}
	svc := newOrderService(subs, orders, catalog, provider, pub)

	_, err := svc.CreateOrder(42, validRequest())
	wantReason(t, err, ReasonDuplicateOrder)

	var vErr *ValidationError
	errors.As(err, &vErr)
	if !strings.Contains(vErr.Message, "ORD2403070001") {
		t.Errorf("duplicate message should reference the existing order number, got %q", vErr.Message)
	}
}

// A cancelled order frees its day.
func TestCreateOrderAfterCancellation(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	orders.orders = []models.Order{{
		ID: 1, OrderNumber: "ORD2403070001", CustomerID: 42,
		OrderDate: "2024-03-07", Status: models.OrderCancelled,
	}}
	svc := newOrderService(subs, orders, catalog, provider, pub)

	if _, err := svc.CreateOrder(42, validRequest()); err != nil {
		t.Fatalf("cancelled order should not block the day: %v", err)
	}
}

// The insert-time unique key is the real duplicate guarantee; a race that
// slips past the advisory check still surfaces as duplicate_order.
func TestCreateOrderRaceLostAtCommit(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	// No existing order, so the advisory check passes; the insert itself
	// then hits the unique key, as it would when two requests race.
	orders.createErr = repositories.ErrDuplicateOrder
	svc := newOrderService(subs, orders, catalog, provider, pub)

	_, err := svc.CreateOrder(42, validRequest())
	wantReason(t, err, ReasonDuplicateOrder)
	if len(pub.events) != 0 {
		t.Error("no event should be published for a failed commit")
	}
}

func TestCreateOrderHolidayRejected(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	provider.holidays = []models.Holiday{
		{BrandID: 7, Type: models.HolidaySpecificDate, Date: "2024-03-07", Name: "National Day", IsActive: true},
	}
	svc := newOrderService(subs, orders, catalog, provider, pub)

	_, err := svc.CreateOrder(42, validRequest())
	wantReason(t, err, ReasonHoliday)
}

func TestCreateOrderItemChecks(t *testing.T) {
	t.Run("unknown item", func(t *testing.T) {
		subs, orders, catalog, provider, pub := validSetup()
		svc := newOrderService(subs, orders, catalog, provider, pub)
		req := validRequest()
		req.Items[0].FoodItemID = 99
		_, err := svc.CreateOrder(42, req)
		wantReason(t, err, ReasonItemUnavailable)
	})

	t.Run("inactive item", func(t *testing.T) {
		subs, orders, catalog, provider, pub := validSetup()
		catalog.items[0].IsActive = false
		svc := newOrderService(subs, orders, catalog, provider, pub)
		_, err := svc.CreateOrder(42, validRequest())
		wantReason(t, err, ReasonItemUnavailable)
	})

	t.Run("item not served that weekday", func(t *testing.T) {
		subs, orders, catalog, provider, pub := validSetup()
		catalog.items[0].AvailableDays = []string{"Monday"} // 2024-03-07 is a Thursday
		svc := newOrderService(subs, orders, catalog, provider, pub)
		_, err := svc.CreateOrder(42, validRequest())
		wantReason(t, err, ReasonItemUnavailable)
	})

	t.Run("foreign delivery location", func(t *testing.T) {
		subs, orders, catalog, provider, pub := validSetup()
		catalog.locations = append(catalog.locations, models.Location{ID: 6, CustomerID: 43, AreaID: 10})
		svc := newOrderService(subs, orders, catalog, provider, pub)
		req := validRequest()
		req.Items[0].DeliveryLocationID = 6
		_, err := svc.CreateOrder(42, req)
		wantReason(t, err, ReasonAreaMismatch)
	})

	t.Run("location outside item area", func(t *testing.T) {
		subs, orders, catalog, provider, pub := validSetup()
		catalog.locations[0].AreaID = 99
		svc := newOrderService(subs, orders, catalog, provider, pub)
		_, err := svc.CreateOrder(42, validRequest())
		wantReason(t, err, ReasonAreaMismatch)
	})
}

func TestCreateOrderConformance(t *testing.T) {
	t.Run("meal type outside subscription", func(t *testing.T) {
		subs, orders, catalog, provider, pub := validSetup()
		catalog.items = append(catalog.items, testFoodItem(3, models.MealBreakfast))
		svc := newOrderService(subs, orders, catalog, provider, pub)
		req := validRequest()
		req.Items = append(req.Items, models.CreateOrderItemRequest{FoodItemID: 3, DeliveryLocationID: 5, Quantity: 1})
		_, err := svc.CreateOrder(42, req)
		wantReason(t, err, ReasonMealTypeNotInPlan)
	})

	t.Run("two items same meal type", func(t *testing.T) {
		subs, orders, catalog, provider, pub := validSetup()
		second := testFoodItem(3, models.MealLunch)
		catalog.items = append(catalog.items, second)
		svc := newOrderService(subs, orders, catalog, provider, pub)
		req := validRequest()
		req.Items = append(req.Items, models.CreateOrderItemRequest{FoodItemID: 3, DeliveryLocationID: 5, Quantity: 1})
		_, err := svc.CreateOrder(42, req)
		wantReason(t, err, ReasonDuplicateMealType)
	})

	t.Run("item outside plan", func(t *testing.T) {
		subs, orders, catalog, provider, pub := validSetup()
		catalog.items[0].PlanIDs = []int{99}
		svc := newOrderService(subs, orders, catalog, provider, pub)
		_, err := svc.CreateOrder(42, validRequest())
		wantReason(t, err, ReasonPlanMismatch)
	})
}

func TestCancelOrderPublishesEvent(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	svc := newOrderService(subs, orders, catalog, provider, pub)

	order, err := svc.CreateOrder(42, validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.CancelOrder(42, order.ID); err != nil {
		t.Fatal(err)
	}
	last := pub.events[len(pub.events)-1]
	if last.Type != "cancelled" {
		t.Errorf("last event = %s, want cancelled", last.Type)
	}

	if err := svc.CancelOrder(42, 9999); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("cancel missing order: err = %v", err)
	}
}

func TestMarkItemDeliveredFlipsOrder(t *testing.T) {
	subs, orders, catalog, provider, pub := validSetup()
	svc := newOrderService(subs, orders, catalog, provider, pub)

	order, err := svc.CreateOrder(42, validRequest())
	if err != nil {
		t.Fatal(err)
	}
	// The fake assigns item IDs via Create; give them explicit IDs.
	orders.orders[0].Items[0].ID = 11
	orders.orders[0].Items[1].ID = 12

	if err := svc.MarkItemDelivered(42, order.ID, 11); err != nil {
		t.Fatal(err)
	}
	if orders.orders[0].Status != models.OrderConfirmed {
		t.Error("order should stay CONFIRMED with one undelivered item")
	}

	if err := svc.MarkItemDelivered(42, order.ID, 12); err != nil {
		t.Fatal(err)
	}
	if orders.orders[0].Status != models.OrderDelivered {
		t.Error("order should flip to DELIVERED once every item is delivered")
	}
	last := pub.events[len(pub.events)-1]
	if last.Type != "delivered" {
		t.Errorf("last event = %s, want delivered", last.Type)
	}
}
