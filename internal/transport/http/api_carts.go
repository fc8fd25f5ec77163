package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	cartsdomain "github.com/commercekit/commerce-core/internal/domains/carts/domain"
	cartsports "github.com/commercekit/commerce-core/internal/domains/carts/ports"
)

// CartAPI wires HTTP transport with the carts bounded context service.
type CartAPI struct {
	service cartsports.Service
}

// NewCartAPI creates a CartAPI backed by the provided service.
func NewCartAPI(service cartsports.Service) CartAPI {
	return CartAPI{service: service}
}

// Cart is the transport representation of a shopper's cart.
type Cart struct {
	ShopperGUID string          `json:"shopper_guid"`
	StoreCode   string          `json:"store_code"`
	Lines       []CartLine      `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	ModifiedAt  time.Time       `json:"modified_at"`
}

// CartLine is one line item of a cart.
type CartLine struct {
	SKU              string          `json:"sku"`
	Quantity         int32           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Kind             string          `json:"kind,omitempty"`
	PreOrBackOrdered bool            `json:"pre_or_back_ordered,omitempty"`
	Bundle           bool            `json:"bundle,omitempty"`
	Constituents     []string        `json:"constituents,omitempty"`
}

// Get /v1/carts/:shopperGuid
// Fetch the shopper's cart, empty when none exists
func (api *CartAPI) GetCart(c *gin.Context) {
	cart, err := api.service.GetCart(c.Request.Context(), c.Param("shopperGuid"), c.Query("store_code"))
	if err != nil {
		respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainCart(cart))
}

// Post /v1/carts/:shopperGuid/lines
// Add or merge a line item
func (api *CartAPI) AddLine(c *gin.Context) {
	var payload CartLine
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	cart, err := api.service.AddLine(c.Request.Context(), c.Param("shopperGuid"), c.Query("store_code"), toDomainLine(payload))
	if err != nil {
		respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainCart(cart))
}

// Post /v1/carts/:shopperGuid/merge
// Fold the previous shopper's cart into the current one
func (api *CartAPI) MergeCarts(c *gin.Context) {
	var payload struct {
		PreviousShopperGUID string `json:"previous_shopper_guid" binding:"required"`
		StoreCode           string `json:"store_code"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	cart, err := api.service.MergeCarts(c.Request.Context(), c.Param("shopperGuid"), payload.PreviousShopperGUID, payload.StoreCode)
	if err != nil {
		respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainCart(cart))
}

// Delete /v1/carts/:shopperGuid
// Drop the shopper's cart
func (api *CartAPI) ClearCart(c *gin.Context) {
	if err := api.service.ClearCart(c.Request.Context(), c.Param("shopperGuid")); err != nil {
		respondCartError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cartsports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, cartsdomain.ErrEmptySKU),
		errors.Is(err, cartsdomain.ErrInvalidQuantity):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func fromDomainCart(cart *cartsdomain.Cart) Cart {
	result := Cart{
		ShopperGUID: cart.ShopperGUID,
		StoreCode:   cart.StoreCode,
		Lines:       make([]CartLine, 0, len(cart.Lines)),
		Total:       cart.Total(),
		ModifiedAt:  cart.ModifiedAt,
	}
	for _, line := range cart.Lines {
		result.Lines = append(result.Lines, CartLine{
			SKU:              line.SKU,
			Quantity:         line.Quantity,
			UnitPrice:        line.UnitPrice,
			Kind:             string(line.Kind),
			PreOrBackOrdered: line.PreOrBackOrdered,
			Bundle:           line.Bundle,
			Constituents:     line.Constituents,
		})
	}
	return result
}

func toDomainLine(line CartLine) cartsdomain.LineItem {
	return cartsdomain.LineItem{
		SKU:              line.SKU,
		Quantity:         line.Quantity,
		UnitPrice:        line.UnitPrice,
		Kind:             cartsdomain.ShipmentKind(line.Kind),
		PreOrBackOrdered: line.PreOrBackOrdered,
		Bundle:           line.Bundle,
		Constituents:     line.Constituents,
	}
}
