package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"meal-order-service/availability"
	"meal-order-service/calendar"
	"meal-order-service/models"
	"meal-order-service/repositories"
)

// EventPublisher pushes order lifecycle events to the broker. Publish
// failures never fail the request; the order is already committed.
type EventPublisher interface {
	PublishOrderEvent(event models.OrderEvent) error
}

// OrderService runs the write path: the full validation pipeline against
// fresh data, then the transactional commit. The read path's output is
// advisory only and never trusted here.
type OrderService struct {
	subscriptions repositories.SubscriptionRepository
	orders        repositories.OrderRepository
	catalog       repositories.CatalogRepository
	provider      SettingsProvider
	publisher     EventPublisher
	now           func() time.Time
}

func NewOrderService(
	subscriptions repositories.SubscriptionRepository,
	orders repositories.OrderRepository,
	catalog repositories.CatalogRepository,
	provider SettingsProvider,
	publisher EventPublisher,
	now func() time.Time,
) *OrderService {
	if now == nil {
		now = time.Now
	}
	return &OrderService{
		subscriptions: subscriptions,
		orders:        orders,
		catalog:       catalog,
		provider:      provider,
		publisher:     publisher,
		now:           now,
	}
}

// CreateOrder validates and commits one order. Each pipeline stage fails
// independently with its own reason; the first failure aborts.
func (s *OrderService) CreateOrder(customerID int, req models.CreateOrderRequest) (*models.Order, error) {
	date, err := calendar.ParseDate(req.OrderDate)
	if err != nil {
		return nil, validationErr(ReasonInvalidDate, "order date must be YYYY-MM-DD")
	}

	sub, err := s.subscriptions.ActiveForCustomer(customerID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNoActiveSubscription
	}
	if err != nil {
		return nil, err
	}

	settings, err := s.provider.BrandSettings(sub.BrandID)
	if err != nil {
		return nil, err
	}
	loc, err := calendar.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, err
	}

	// Stage 1: date validity, window re-derived fresh.
	if err := s.checkDate(settings, loc, sub, date); err != nil {
		return nil, err
	}

	// Stage 2: duplicate order. Advisory here; the unique key at commit
	// time is the real guarantee.
	if err := s.checkDuplicate(customerID, date); err != nil {
		return nil, err
	}

	// Stage 3: referenced items and locations exist, are active, area matches.
	items, foods, err := s.checkItems(customerID, date, req.Items)
	if err != nil {
		return nil, err
	}

	// Stage 4: holiday re-check against the provider, not client data.
	if err := s.checkHoliday(sub.BrandID, date); err != nil {
		return nil, err
	}

	// Stage 5: plan/meal-type conformance.
	if err := s.checkConformance(sub, items, foods); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:     customerID,
		SubscriptionID: sub.ID,
		OrderDate:      date,
		Items:          items,
	}
	if err := s.orders.Create(order); err != nil {
		if errors.Is(err, repositories.ErrDuplicateOrder) {
			// Lost the race between the duplicate check and the insert;
			// surface it exactly like the advisory check would.
			return nil, s.duplicateError(customerID, date)
		}
		return nil, err
	}

	s.publish(models.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  customerID,
		Type:        "created",
		OrderDate:   date.String(),
		Occurred:    s.now().UTC(),
	})
	return order, nil
}

func (s *OrderService) checkDate(settings models.BrandSettings, loc *time.Location, sub *models.Subscription, date calendar.Date) error {
	switch availability.ClassifyDate(s.now(), loc, settings, sub, date) {
	case availability.DateTooEarly:
		return validationErr(ReasonDateTooEarly,
			fmt.Sprintf("orders need at least %d day(s) notice", settings.MinAdvanceOrderDays))
	case availability.DateBeforeCutoff:
		return validationErr(ReasonDateBeforeCutoff,
			fmt.Sprintf("orders for this date closed at %02d:00", settings.AdvanceOrderCutoffHour))
	case availability.DateTooLate:
		return validationErr(ReasonDateTooLate,
			fmt.Sprintf("orders can be placed at most %d days ahead", settings.MaxAdvanceOrderDays))
	case availability.DateOutsideSubscription:
		return validationErr(ReasonOutsideSubscription, "date is outside your subscription period")
	}
	return nil
}

func (s *OrderService) checkDuplicate(customerID int, date calendar.Date) error {
	existing, err := s.orders.FindByDate(customerID, date)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return validationErr(ReasonDuplicateOrder,
		fmt.Sprintf("an order already exists for this date (%s)", existing.OrderNumber))
}

func (s *OrderService) duplicateError(customerID int, date calendar.Date) error {
	existing, err := s.orders.FindByDate(customerID, date)
	if err != nil {
		return validationErr(ReasonDuplicateOrder, "an order already exists for this date")
	}
	return validationErr(ReasonDuplicateOrder,
		fmt.Sprintf("an order already exists for this date (%s)", existing.OrderNumber))
}

func (s *OrderService) checkItems(customerID int, date calendar.Date, reqs []models.CreateOrderItemRequest) ([]models.OrderItem, map[int]models.FoodItem, error) {
	itemIDs := make([]int, 0, len(reqs))
	locIDs := make([]int, 0, len(reqs))
	for _, r := range reqs {
		itemIDs = append(itemIDs, r.FoodItemID)
		locIDs = append(locIDs, r.DeliveryLocationID)
	}

	foodItems, err := s.catalog.FindItemsByIDs(itemIDs)
	if err != nil {
		return nil, nil, err
	}
	itemsByID := make(map[int]models.FoodItem, len(foodItems))
	for _, f := range foodItems {
		itemsByID[f.ID] = f
	}

	locations, err := s.catalog.LocationsByIDs(locIDs)
	if err != nil {
		return nil, nil, err
	}
	locsByID := make(map[int]models.Location, len(locations))
	for _, l := range locations {
		locsByID[l.ID] = l
	}

	weekday := date.Weekday()
	out := make([]models.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		item, ok := itemsByID[r.FoodItemID]
		if !ok || !item.IsActive {
			return nil, nil, validationErr(ReasonItemUnavailable,
				fmt.Sprintf("food item %d is not available", r.FoodItemID))
		}
		if !item.AvailableOn(weekday) {
			return nil, nil, validationErr(ReasonItemUnavailable,
				fmt.Sprintf("%s is not served on %s", item.Name, weekday))
		}
		location, ok := locsByID[r.DeliveryLocationID]
		if !ok || location.CustomerID != customerID {
			return nil, nil, validationErr(ReasonAreaMismatch,
				fmt.Sprintf("delivery location %d not found", r.DeliveryLocationID))
		}
		if !item.InArea(location.AreaID) {
			return nil, nil, validationErr(ReasonAreaMismatch,
				fmt.Sprintf("%s is not delivered to %s", item.Name, location.Label))
		}
		out = append(out, models.OrderItem{
			FoodItemID:         item.ID,
			FoodItemName:       item.Name,
			MealTypeID:         item.MealTypeID,
			DeliveryLocationID: location.ID,
			Quantity:           r.Quantity,
		})
	}
	return out, itemsByID, nil
}

func (s *OrderService) checkHoliday(brandID int, date calendar.Date) error {
	holidays, err := s.provider.Holidays(brandID)
	if err != nil {
		return err
	}
	for _, h := range holidays {
		if h.Matches(date) {
			return validationErr(ReasonHoliday,
				fmt.Sprintf("no orders on %s (%s)", date, h.Name))
		}
	}
	return nil
}

func (s *OrderService) checkConformance(sub *models.Subscription, items []models.OrderItem, foods map[int]models.FoodItem) error {
	allowed := make(map[string]bool, len(sub.MealTypeIDs))
	for _, mt := range sub.MealTypeIDs {
		allowed[mt] = true
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !allowed[item.MealTypeID] {
			return validationErr(ReasonMealTypeNotInPlan,
				fmt.Sprintf("%s is not part of your subscription's meal types", item.MealTypeID))
		}
		if seen[item.MealTypeID] {
			return validationErr(ReasonDuplicateMealType,
				fmt.Sprintf("only one %s item per day", item.MealTypeID))
		}
		seen[item.MealTypeID] = true

		if !foods[item.FoodItemID].InPlan(sub.PlanID) {
			return validationErr(ReasonPlanMismatch,
				fmt.Sprintf("%s is not part of your plan", item.FoodItemName))
		}
	}
	return nil
}

// CancelOrder cancels a confirmed order, freeing its date for re-ordering.
func (s *OrderService) CancelOrder(customerID, orderID int) error {
	order, err := s.orders.FindByID(customerID, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if err := s.orders.Cancel(customerID, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	s.publish(models.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  customerID,
		Type:        "cancelled",
		OrderDate:   order.OrderDate.String(),
		Occurred:    s.now().UTC(),
	})
	return nil
}

// MarkItemDelivered stamps one line item; when every item of the order is
// delivered the order itself flips to DELIVERED and an event goes out.
func (s *OrderService) MarkItemDelivered(customerID, orderID, itemID int) error {
	order, err := s.orders.FindByID(customerID, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	sub, err := s.subscriptions.ActiveForCustomer(customerID)
	var loc *time.Location
	if err == nil {
		if settings, serr := s.provider.BrandSettings(sub.BrandID); serr == nil {
			loc, _ = calendar.LoadLocation(settings.Timezone)
		}
	}
	if loc == nil {
		loc = time.UTC
	}

	allDelivered, err := s.orders.MarkItemDelivered(customerID, orderID, itemID, calendar.DateOf(s.now(), loc))
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if allDelivered {
		s.publish(models.OrderEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  customerID,
			Type:        "delivered",
			OrderDate:   order.OrderDate.String(),
			Occurred:    s.now().UTC(),
		})
	}
	return nil
}

func (s *OrderService) GetOrder(customerID, orderID int) (*models.Order, error) {
	order, err := s.orders.FindByID(customerID, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *OrderService) ListOrders(customerID int) ([]models.Order, error) {
	orders, err := s.orders.ListForCustomer(customerID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderService) publish(event models.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(event); err != nil {
		log.Printf("Failed to publish %s event for order %s: %v", event.Type, event.OrderNumber, err)
	}
}
