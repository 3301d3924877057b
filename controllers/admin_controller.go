package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"meal-order-service/calendar"
	"meal-order-service/lifecycle"
	"meal-order-service/middlewares"
	"meal-order-service/models"
	"meal-order-service/providers"
	"meal-order-service/services"
)

// AdminController exposes the settings/holiday/subscription admin surface
// and the manual lifecycle trigger. All writes flow through the provider,
// which owns cache invalidation.
type AdminController struct {
	provider      *providers.Provider
	subscriptions *services.SubscriptionService
	scheduler     *lifecycle.Scheduler
}

func NewAdminController(provider *providers.Provider, subscriptions *services.SubscriptionService, scheduler *lifecycle.Scheduler) *AdminController {
	return &AdminController{provider: provider, subscriptions: subscriptions, scheduler: scheduler}
}

func (ctl *AdminController) UpdateBrandSettings(c *gin.Context) {
	brandID, err := strconv.Atoi(c.Param("brandID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid brand ID"})
		return
	}

	var req models.UpdateBrandSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := ctl.provider.BrandSettings(brandID)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.AdvanceOrderCutoffHour != nil {
		settings.AdvanceOrderCutoffHour = *req.AdvanceOrderCutoffHour
	}
	if req.MinAdvanceOrderDays != nil {
		settings.MinAdvanceOrderDays = *req.MinAdvanceOrderDays
	}
	if req.MaxAdvanceOrderDays != nil {
		settings.MaxAdvanceOrderDays = *req.MaxAdvanceOrderDays
	}
	if req.Timezone != nil {
		if _, err := calendar.LoadLocation(*req.Timezone); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown timezone"})
			return
		}
		settings.Timezone = *req.Timezone
	}
	if settings.MinAdvanceOrderDays > settings.MaxAdvanceOrderDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_advance_order_days exceeds max_advance_order_days"})
		return
	}

	if err := ctl.provider.UpdateSettings(settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (ctl *AdminController) CreateHoliday(c *gin.Context) {
	brandID, err := strconv.Atoi(c.Param("brandID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid brand ID"})
		return
	}

	var req models.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h := models.Holiday{BrandID: brandID, Type: req.Type, Name: req.Name}
	switch req.Type {
	case models.HolidaySpecificDate:
		date, err := calendar.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD for SPECIFIC_DATE holidays"})
			return
		}
		h.Date = date
	case models.HolidayRecurringWeekly:
		if req.DayOfWeek == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day_of_week is required for RECURRING_WEEKLY holidays"})
			return
		}
		h.DayOfWeek = req.DayOfWeek
	}

	if err := ctl.provider.CreateHoliday(&h); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h)
}

func (ctl *AdminController) DeleteHoliday(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid holiday ID"})
		return
	}

	if err := ctl.provider.DeleteHoliday(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Holiday removed", "holiday_id": id})
}

func (ctl *AdminController) CreateSubscription(c *gin.Context) {
	var req models.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := ctl.subscriptions.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (ctl *AdminController) CancelSubscription(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	if err := ctl.subscriptions.Cancel(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled", "subscription_id": id})
}

// RunLifecycle triggers the daily tick manually.
func (ctl *AdminController) RunLifecycle(c *gin.Context) {
	result, err := ctl.scheduler.Fire()
	if err != nil {
		respondError(c, err)
		return
	}
	middlewares.RecordLifecycleTransitions(result.ExpiredCount, result.ActivatedCount)
	c.JSON(http.StatusOK, result)
}
