package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/store_api/internal/models"
)

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser("admin", "admin@example.com", "password", models.RoleAdmin)
	_, alice := env.createUser("alice", "alice@example.com", "password", models.RoleUser)
	chair := env.createProduct("chair", 25.5, admin.UserID)
	desk := env.createProduct("desk", 100, admin.UserID)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", map[string]any{
		"tax":         10,
		"shippingFee": 5,
		"items": []map[string]any{
			{"product": chair.ID, "amount": 2},
			{"product": desk.ID, "amount": 1},
		},
	})
	asIdentity(c, alice)
	require.NoError(t, env.Orders.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Order        models.Order `json:"order"`
		ClientSecret string       `json:"clientSecret"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, alice.UserID, resp.Order.UserID)
	require.Equal(t, models.OrderStatusPending, resp.Order.Status)
	require.Equal(t, 151.0, resp.Order.Subtotal)
	require.Equal(t, 166.0, resp.Order.Total)
	require.Len(t, resp.Order.Items, 2)
	require.NotEmpty(t, resp.ClientSecret)

	// items snapshot the product at order time
	require.Equal(t, "chair", resp.Order.Items[0].Name)
	require.Equal(t, 25.5, resp.Order.Items[0].Price)
	require.EqualValues(t, 2, resp.Order.Items[0].Amount)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser("admin", "admin@example.com", "password", models.RoleAdmin)
	_, alice := env.createUser("alice", "alice@example.com", "password", models.RoleUser)
	chair := env.createProduct("chair", 25.5, admin.UserID)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"no items", map[string]any{"tax": 10, "shippingFee": 5}, http.StatusBadRequest},
		{"missing fees", map[string]any{"items": []map[string]any{{"product": chair.ID, "amount": 1}}}, http.StatusBadRequest},
		{"zero amount", map[string]any{"tax": 10, "shippingFee": 5, "items": []map[string]any{{"product": chair.ID, "amount": 0}}}, http.StatusBadRequest},
		{"unknown product", map[string]any{"tax": 10, "shippingFee": 5, "items": []map[string]any{{"product": 9999, "amount": 1}}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", tt.body)
			asIdentity(c, alice)
			requireAppError(t, env.Orders.CreateOrder(c), tt.wantStatus)
		})
	}

	// a failed order leaves nothing behind
	var count int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGetOrdersScoping(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser("admin", "admin@example.com", "password", models.RoleAdmin)
	alice, aliceID := env.createUser("alice", "alice@example.com", "password", models.RoleUser)
	bob, bobID := env.createUser("bob", "bob@example.com", "password", models.RoleUser)

	require.NoError(t, env.DB.Create(&models.Order{UserID: alice.ID, Tax: 1, ShippingFee: 1, Subtotal: 10, Total: 12, Status: models.OrderStatusPending}).Error)
	require.NoError(t, env.DB.Create(&models.Order{UserID: bob.ID, Tax: 1, ShippingFee: 1, Subtotal: 20, Total: 22, Status: models.OrderStatusPending}).Error)

	// admin sees everything
	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil)
	asIdentity(c, admin)
	require.NoError(t, env.Orders.GetAllOrders(c))

	var resp struct {
		Orders []models.Order `json:"orders"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)

	// users see only their own
	rec, c = env.doJSONRequest(http.MethodGet, "/api/v1/orders/showAllMyOrders", nil)
	asIdentity(c, aliceID)
	require.NoError(t, env.Orders.GetCurrentUserOrders(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, alice.ID, resp.Orders[0].UserID)

	// single-order access is owner-or-admin
	aliceOrder := resp.Orders[0]
	_, c = env.doJSONRequest(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", aliceOrder.ID), nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(aliceOrder.ID))
	asIdentity(c, bobID)
	requireAppError(t, env.Orders.GetSingleOrder(c), http.StatusForbidden)

	rec, c = env.doJSONRequest(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", aliceOrder.ID), nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(aliceOrder.ID))
	asIdentity(c, admin)
	require.NoError(t, env.Orders.GetSingleOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateOrderMarksPaid(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceID := env.createUser("alice", "alice@example.com", "password", models.RoleUser)

	order := models.Order{UserID: alice.ID, Tax: 1, ShippingFee: 1, Subtotal: 10, Total: 12, Status: models.OrderStatusPending}
	require.NoError(t, env.DB.Create(&order).Error)

	rec, c := env.doJSONRequest(http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d", order.ID), map[string]string{
		"paymentIntentId": "pi_12345",
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(order.ID))
	asIdentity(c, aliceID)
	require.NoError(t, env.Orders.UpdateOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Order
	require.NoError(t, env.DB.First(&stored, order.ID).Error)
	require.Equal(t, models.OrderStatusPaid, stored.Status)
	require.Equal(t, "pi_12345", stored.PaymentIntentID)
}

func TestUpdateOrderNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.createUser("alice", "alice@example.com", "password", models.RoleUser)

	_, c := env.doJSONRequest(http.MethodPatch, "/api/v1/orders/77", map[string]string{
		"paymentIntentId": "pi_12345",
	})
	c.SetParamNames("id")
	c.SetParamValues("77")
	asIdentity(c, alice)
	requireAppError(t, env.Orders.UpdateOrder(c), http.StatusNotFound)
}
