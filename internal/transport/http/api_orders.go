package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	ordersapp "github.com/commercekit/commerce-core/internal/domains/orders/application"
	ordersdomain "github.com/commercekit/commerce-core/internal/domains/orders/domain"
	ordersports "github.com/commercekit/commerce-core/internal/domains/orders/ports"
)

// OrderAPI wires HTTP transport with the orders bounded context service.
type OrderAPI struct {
	service ordersports.Service
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service ordersports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// Order is the transport representation of an order aggregate.
type Order struct {
	GUID         string          `json:"guid"`
	CustomerGUID string          `json:"customer_guid"`
	StoreCode    string          `json:"store_code"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Exchange     bool            `json:"exchange"`
	Shipments    []Shipment      `json:"shipments"`
	Payments     []PaymentEntry  `json:"payments"`
	CreatedAt    time.Time       `json:"created_at"`
	ModifiedAt   time.Time       `json:"modified_at"`
}

// Shipment is the transport representation of one shipment.
type Shipment struct {
	GUID   string          `json:"guid"`
	Type   string          `json:"type"`
	Status string          `json:"status"`
	Total  decimal.Decimal `json:"total"`
	Lines  []SKULine       `json:"lines"`
}

// SKULine is one line of a shipment.
type SKULine struct {
	SKU              string          `json:"sku"`
	Quantity         int32           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	PreOrBackOrdered bool            `json:"pre_or_back_ordered"`
}

// PaymentEntry is one row of the append-only payment ledger.
type PaymentEntry struct {
	GUID            string          `json:"guid"`
	ShipmentGUID    string          `json:"shipment_guid"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceID     string          `json:"reference_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Get /v1/orders/:orderGuid
// Fetch one order with shipments and payment ledger
func (api *OrderAPI) GetOrder(c *gin.Context) {
	order, err := api.service.GetOrder(c.Request.Context(), c.Param("orderGuid"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainOrder(order))
}

// Get /v1/customers/:customerGuid/orders
// List a customer's orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	orders, err := api.service.ListOrdersByCustomer(c.Request.Context(), c.Param("customerGuid"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, fromDomainOrder(order))
	}
	c.JSON(http.StatusOK, result)
}

// Post /v1/orders/:orderGuid/cancel
// Cancel an order with no shipped shipments
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	api.orderOp(c, api.service.CancelOrder)
}

// Post /v1/orders/:orderGuid/hold
// Put an order on hold
func (api *OrderAPI) HoldOrder(c *gin.Context) {
	api.orderOp(c, api.service.HoldOrder)
}

// Post /v1/orders/:orderGuid/release-hold
// Release a held order back to IN_PROGRESS
func (api *OrderAPI) ReleaseHold(c *gin.Context) {
	api.orderOp(c, api.service.ReleaseHold)
}

// Post /v1/orders/:orderGuid/shipments/:shipmentGuid/release
// Release inventory for a shipment, swapping a pre-order hold for the full authorization
func (api *OrderAPI) ReleaseShipment(c *gin.Context) {
	api.shipmentOp(c, api.service.ReleaseShipment)
}

// Post /v1/orders/:orderGuid/shipments/:shipmentGuid/complete
// Capture the shipment authorization and mark it shipped
func (api *OrderAPI) CompleteShipment(c *gin.Context) {
	api.shipmentOp(c, api.service.CompleteShipment)
}

// Post /v1/orders/:orderGuid/shipments/:shipmentGuid/cancel
// Cancel a shipment, reversing its authorization
func (api *OrderAPI) CancelShipment(c *gin.Context) {
	api.shipmentOp(c, api.service.CancelShipment)
}

// Post /v1/orders/:orderGuid/shipments/:shipmentGuid/adjust
// Re-authorize a shipment at a new total
func (api *OrderAPI) AdjustShipmentTotal(c *gin.Context) {
	var payload struct {
		NewTotal decimal.Decimal `json:"new_total" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.AdjustShipmentTotal(c.Request.Context(), c.Param("orderGuid"), c.Param("shipmentGuid"), payload.NewTotal)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainOrder(order))
}

// Post /v1/orders/:orderGuid/shipments/:shipmentGuid/refund
// Credit part of the captured amount back to the shopper
func (api *OrderAPI) Refund(c *gin.Context) {
	var payload struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.Refund(c.Request.Context(), c.Param("orderGuid"), c.Param("shipmentGuid"), payload.Amount)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainOrder(order))
}

func (api *OrderAPI) orderOp(c *gin.Context, op func(ctx context.Context, guid string) (*ordersdomain.Order, error)) {
	order, err := op(c.Request.Context(), c.Param("orderGuid"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainOrder(order))
}

func (api *OrderAPI) shipmentOp(c *gin.Context, op func(ctx context.Context, orderGUID, shipmentGUID string) (*ordersdomain.Order, error)) {
	order, err := op(c.Request.Context(), c.Param("orderGuid"), c.Param("shipmentGuid"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainOrder(order))
}

func respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ordersports.ErrNotFound), errors.Is(err, ordersdomain.ErrShipmentNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, ordersapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, ordersapp.ErrCompleteShipmentFailed),
		errors.Is(err, ordersapp.ErrReleaseShipmentFailed),
		errors.Is(err, ordersapp.ErrRefundDeclined):
		respondError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, ordersapp.ErrNoActiveAuthorization),
		errors.Is(err, ordersdomain.ErrOrderNotCancellable),
		errors.Is(err, ordersdomain.ErrOrderNotOnHold),
		errors.Is(err, ordersdomain.ErrOrderTerminal),
		errors.Is(err, ordersdomain.ErrRefundExceedsCaptured):
		respondError(c, http.StatusConflict, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func fromDomainOrder(order *ordersdomain.Order) Order {
	result := Order{
		GUID:         order.GUID,
		CustomerGUID: order.CustomerGUID,
		StoreCode:    order.StoreCode,
		Status:       string(order.Status),
		Total:        order.Total,
		Exchange:     order.Exchange,
		Shipments:    make([]Shipment, 0, len(order.Shipments)),
		Payments:     make([]PaymentEntry, 0, len(order.Payments)),
		CreatedAt:    order.CreatedAt,
		ModifiedAt:   order.ModifiedAt,
	}
	for _, shipment := range order.Shipments {
		result.Shipments = append(result.Shipments, fromDomainShipment(shipment))
	}
	for _, entry := range order.Payments {
		result.Payments = append(result.Payments, PaymentEntry{
			GUID:            entry.GUID,
			ShipmentGUID:    entry.ShipmentGUID,
			TransactionType: string(entry.TransactionType),
			Amount:          entry.Amount,
			Status:          string(entry.Status),
			PaymentMethod:   entry.PaymentMethod,
			ReferenceID:     entry.ReferenceID,
			CreatedAt:       entry.CreatedAt,
		})
	}
	return result
}

func fromDomainShipment(shipment *ordersdomain.Shipment) Shipment {
	result := Shipment{
		GUID:   shipment.GUID,
		Type:   string(shipment.Type),
		Status: string(shipment.Status),
		Total:  shipment.Total,
		Lines:  make([]SKULine, 0, len(shipment.Lines)),
	}
	for _, line := range shipment.Lines {
		result.Lines = append(result.Lines, SKULine{
			SKU:              line.SKU,
			Quantity:         line.Quantity,
			UnitPrice:        line.UnitPrice,
			PreOrBackOrdered: line.PreOrBackOrdered,
		})
	}
	return result
}
