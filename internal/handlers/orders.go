package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/store_api/internal/httperr"
	authmw "github.com/Skotchmaster/store_api/internal/middleware/auth"
	"github.com/Skotchmaster/store_api/internal/models"
	"github.com/Skotchmaster/store_api/internal/mykafka"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type orderItemRequest struct {
	ProductID uint `json:"product"`
	Amount    uint `json:"amount"`
}

type createOrderRequest struct {
	Items       []orderItemRequest `json:"items"`
	Tax         float64            `json:"tax"`
	ShippingFee float64            `json:"shippingFee"`
}

// fakePaymentIntent stands in for a real payment provider call.
func fakePaymentIntent(amount float64) (id, clientSecret string) {
	return "pi_" + uuid.NewString(), fmt.Sprintf("secret_%s_%0.2f", uuid.NewString(), amount)
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if len(req.Items) == 0 {
		return httperr.BadRequest("no order items provided")
	}
	if req.Tax <= 0 || req.ShippingFee <= 0 {
		return httperr.BadRequest("please provide tax and shipping fee")
	}

	var order models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		items := make([]models.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			if it.Amount == 0 {
				return httperr.BadRequest("please provide an amount for every order item")
			}

			var prod models.Product
			if err := tx.First(&prod, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return httperr.NotFound(fmt.Sprintf("no product with id : %d", it.ProductID))
				}
				return err
			}

			// Prices are snapshotted at order time.
			items = append(items, models.OrderItem{
				ProductID: prod.ID,
				Name:      prod.Name,
				Image:     prod.Image,
				Price:     prod.Price,
				Amount:    it.Amount,
			})
			subtotal += prod.Price * float64(it.Amount)
		}

		total := subtotal + req.Tax + req.ShippingFee
		intentID, clientSecret := fakePaymentIntent(total)

		order = models.Order{
			UserID:          actor.UserID,
			Tax:             req.Tax,
			ShippingFee:     req.ShippingFee,
			Subtotal:        subtotal,
			Total:           total,
			Status:          models.OrderStatusPending,
			ClientSecret:    clientSecret,
			PaymentIntentID: intentID,
			Items:           items,
		}
		return tx.Create(&order).Error
	})
	if txErr != nil {
		return txErr
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  order.UserID,
		"total":   order.Total,
	})

	return c.JSON(http.StatusCreated, echo.Map{"order": order, "clientSecret": order.ClientSecret})
}

func (h *OrderHandler) GetAllOrders(c echo.Context) error {
	var orders []models.Order
	if err := h.DB.Preload("Items").Order("id ASC").Find(&orders).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) GetCurrentUserOrders(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").Where("user_id = ?", actor.UserID).Find(&orders).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) GetSingleOrder(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var order models.Order
	if err := h.DB.Preload("Items").Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no order with id : %s", c.Param("id")))
		}
		return err
	}
	if err := authmw.CheckPermissions(actor, order.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order})
}

type updateOrderRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// UpdateOrder records the completed payment and marks the order paid.
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var req updateOrderRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.PaymentIntentID == "" {
		return httperr.BadRequest("please provide payment intent id")
	}

	var order models.Order
	if err := h.DB.Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no order with id : %s", c.Param("id")))
		}
		return err
	}
	if err := authmw.CheckPermissions(actor, order.UserID); err != nil {
		return err
	}

	order.PaymentIntentID = req.PaymentIntentID
	order.Status = models.OrderStatusPaid
	if err := h.DB.Save(&order).Error; err != nil {
		return err
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":    "order_paid",
		"orderID": order.ID,
		"userID":  order.UserID,
	})

	return c.JSON(http.StatusOK, echo.Map{"order": order})
}
