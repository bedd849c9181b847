package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the order routes. Every route needs auth; the
// full listing is admin only.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Post("/verify", h.HandleVerifyPayment)
	orderRoutes.Get("/myorders", h.HandleGetMyOrders)
	orderRoutes.Get("/", middleware.AdminOnly(), h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// CreateOrderRequest is the checkout body.
type CreateOrderRequest struct {
	OrderItems []services.LineItem `json:"orderItems" validate:"required,min=1,dive"`
	Address    models.Address      `json:"address"`
	TotalPrice float64             `json:"totalPrice" validate:"gt=0"`
}

// VerifyPaymentRequest carries the payment proof returned by the gateway's
// checkout to the browser.
type VerifyPaymentRequest struct {
	OrderID          string `json:"orderId" validate:"required"`
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

// HandleCreateOrder creates the gateway order and the local Pending order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized"})
	}

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if len(req.OrderItems) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No order items",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	created, err := h.service.CreateOrder(c.UserContext(), requester, services.CreateOrderInput{
		Items:      req.OrderItems,
		Address:    req.Address,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "Could not create order")
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleVerifyPayment confirms a payment from the browser's proof.
func (h *OrderHandler) HandleVerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	_, err := h.service.ConfirmPayment(c.UserContext(), services.ConfirmPaymentInput{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "Internal Server Error")
	}

	return c.JSON(fiber.Map{
		"message": "Payment verified successfully",
	})
}

// HandleGetMyOrders lists the caller's orders, newest first.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized"})
	}

	orders, err := h.service.ListOrdersForUser(c.UserContext(), requester.Email)
	if err != nil {
		return serviceError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrders lists every order for admins.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	requester, _ := middleware.CurrentRequester(c)
	orders, err := h.service.ListAllOrders(c.UserContext(), requester)
	if err != nil {
		return serviceError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order for its buyer or an admin.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	requester, ok := middleware.CurrentRequester(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized"})
	}

	order, err := h.service.GetOrder(c.UserContext(), requester, c.Params("id"))
	if err != nil {
		return serviceError(c, h.logger, err, "Could not retrieve order")
	}
	return c.JSON(order)
}
