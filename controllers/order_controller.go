package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"meal-order-service/middlewares"
	"meal-order-service/models"
	"meal-order-service/repositories"
	"meal-order-service/services"
)

// OrderController exposes the customer-facing read and write paths.
type OrderController struct {
	availability *services.AvailabilityService
	orders       *services.OrderService
}

func NewOrderController(availability *services.AvailabilityService, orders *services.OrderService) *OrderController {
	return &OrderController{availability: availability, orders: orders}
}

// GetAvailableDays returns the orderable-calendar projection. An empty
// day list is a 200 with a "no available days" note, not an error.
func (ctl *OrderController) GetAvailableDays(c *gin.Context) {
	defer func() {
		middlewares.RecordAvailabilityRequest(c.Writer.Status() < 400)
	}()

	customerID := c.GetInt(middlewares.ContextCustomerID)
	resp, err := ctl.availability.AvailableDays(customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if len(resp.Days) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"subscription":   resp.Subscription,
			"ordering_rules": resp.OrderingRules,
			"days":           resp.Days,
			"message":        "no available days",
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ctl *OrderController) CreateOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("create", c.Writer.Status() < 400)
	}()

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID := c.GetInt(middlewares.ContextCustomerID)
	order, err := ctl.orders.CreateOrder(customerID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (ctl *OrderController) GetUserOrders(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("list", c.Writer.Status() < 400)
	}()

	customerID := c.GetInt(middlewares.ContextCustomerID)
	orders, err := ctl.orders.ListOrders(customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *OrderController) GetOrderDetails(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("details", c.Writer.Status() < 400)
	}()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	customerID := c.GetInt(middlewares.ContextCustomerID)
	order, err := ctl.orders.GetOrder(customerID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (ctl *OrderController) CancelOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("cancel", c.Writer.Status() < 400)
	}()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	customerID := c.GetInt(middlewares.ContextCustomerID)
	if err := ctl.orders.CancelOrder(customerID, orderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order_id": orderID})
}

func (ctl *OrderController) MarkItemDelivered(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("deliver_item", c.Writer.Status() < 400)
	}()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}
	itemID, err := strconv.Atoi(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	customerID := c.GetInt(middlewares.ContextCustomerID)
	if err := ctl.orders.MarkItemDelivered(customerID, orderID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item marked delivered", "order_id": orderID, "item_id": itemID})
}

// respondError maps service errors onto the error taxonomy: validation
// failures are 400s with a reason code, missing aggregates are 404s,
// everything else is a 500 and gets logged.
func respondError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "reason": vErr.Reason})
		return
	}

	switch {
	case errors.Is(err, services.ErrNoActiveSubscription),
		errors.Is(err, services.ErrNoDeliveryLocation),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrSubscriptionNotFound),
		errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
