package services

import "errors"

// ValidationError is a client-correctable input error: 4xx at the API
// boundary, never retried, logged at warning level at most.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation reason codes, one per pipeline stage outcome.
const (
	ReasonDateTooEarly        = "date_too_early"
	ReasonDateBeforeCutoff    = "date_before_cutoff"
	ReasonDateTooLate         = "date_too_late"
	ReasonOutsideSubscription = "outside_subscription"
	ReasonDuplicateOrder      = "duplicate_order"
	ReasonHoliday             = "holiday"
	ReasonItemUnavailable     = "item_unavailable"
	ReasonAreaMismatch        = "area_mismatch"
	ReasonMealTypeNotInPlan   = "meal_type_not_in_plan"
	ReasonDuplicateMealType   = "duplicate_meal_type"
	ReasonPlanMismatch        = "plan_mismatch"
	ReasonInvalidDate         = "invalid_date"
	ReasonInvalidPeriod       = "invalid_period"
	ReasonPendingExists       = "pending_subscription_exists"
)

// Not-found conditions, 404 at the boundary.
var (
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrNoDeliveryLocation   = errors.New("no delivery location")
	ErrOrderNotFound        = errors.New("order not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

func validationErr(reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}
