package services

import (
	"errors"
	"time"

	"meal-order-service/calendar"
	"meal-order-service/models"
	"meal-order-service/repositories"
)

// SubscriptionService backs the admin subscription endpoints. Status is
// only ever set here at creation, by the lifecycle job, or by explicit
// cancellation.
type SubscriptionService struct {
	subscriptions repositories.SubscriptionRepository
	provider      SettingsProvider
	now           func() time.Time
}

func NewSubscriptionService(subscriptions repositories.SubscriptionRepository, provider SettingsProvider, now func() time.Time) *SubscriptionService {
	if now == nil {
		now = time.Now
	}
	return &SubscriptionService{subscriptions: subscriptions, provider: provider, now: now}
}

// Create validates the period and queues the subscription. A customer
// with an ACTIVE subscription gets a PENDING successor; at most one
// PENDING subscription may be queued per customer/brand, so the
// lifecycle job's one-successor policy can never strand a queue entry.
func (s *SubscriptionService) Create(req models.CreateSubscriptionRequest) (*models.Subscription, error) {
	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		return nil, validationErr(ReasonInvalidDate, "start_date must be YYYY-MM-DD")
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		return nil, validationErr(ReasonInvalidDate, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, validationErr(ReasonInvalidPeriod, "end_date is before start_date")
	}

	settings, err := s.provider.BrandSettings(req.BrandID)
	if err != nil {
		return nil, err
	}
	loc, err := calendar.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, err
	}
	today := calendar.DateOf(s.now(), loc)
	if end.Before(today) {
		return nil, validationErr(ReasonInvalidPeriod, "subscription period is entirely in the past")
	}

	sub := &models.Subscription{
		CustomerID:  req.CustomerID,
		BrandID:     req.BrandID,
		PlanID:      req.PlanID,
		CategoryID:  req.CategoryID,
		MealTypeIDs: req.MealTypeIDs,
		StartDate:   start,
		EndDate:     end,
	}

	// At most one PENDING subscription per customer/brand, whether or not
	// an ACTIVE one exists: the lifecycle job activates a single successor
	// per expiry, so a second queued row would never leave PENDING.
	pending, err := s.subscriptions.HasPending(req.CustomerID, req.BrandID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, validationErr(ReasonPendingExists, "a pending subscription is already queued")
	}

	_, err = s.subscriptions.ActiveForCustomer(req.CustomerID)
	switch {
	case err == nil:
		// Existing ACTIVE subscription: queue this one behind it.
		sub.Status = models.SubscriptionPending
	case errors.Is(err, repositories.ErrNotFound):
		if start.After(today) {
			sub.Status = models.SubscriptionPending
		} else {
			sub.Status = models.SubscriptionActive
		}
	default:
		return nil, err
	}

	if err := s.subscriptions.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Cancel cancels the subscription and cascade-cancels its live orders.
func (s *SubscriptionService) Cancel(subscriptionID int) error {
	err := s.subscriptions.Cancel(subscriptionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrSubscriptionNotFound
	}
	return err
}
