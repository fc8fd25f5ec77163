package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	cartsdomain "github.com/commercekit/commerce-core/internal/domains/carts/domain"
	cartsports "github.com/commercekit/commerce-core/internal/domains/carts/ports"
	checkoutapp "github.com/commercekit/commerce-core/internal/domains/checkout/application"
	checkoutdomain "github.com/commercekit/commerce-core/internal/domains/checkout/domain"
	checkoutports "github.com/commercekit/commerce-core/internal/domains/checkout/ports"
)

// CheckoutAPI wires HTTP transport with the checkout orchestrator. The
// workflow orchestrator runs the durable Temporal path when configured and
// falls back to inline execution otherwise.
type CheckoutAPI struct {
	workflows checkoutports.WorkflowOrchestrator
	carts     cartsports.Service
}

// NewCheckoutAPI creates a CheckoutAPI backed by the provided orchestrator.
func NewCheckoutAPI(workflows checkoutports.WorkflowOrchestrator, carts cartsports.Service) CheckoutAPI {
	return CheckoutAPI{workflows: workflows, carts: carts}
}

// CheckoutRequest is the transport input of one checkout attempt. The cart is
// loaded server-side from the shopper's stored cart.
type CheckoutRequest struct {
	ShopperGUID   string          `json:"shopper_guid" binding:"required"`
	CustomerGUID  string          `json:"customer_guid" binding:"required"`
	StoreCode     string          `json:"store_code" binding:"required"`
	TaxDocumentID string          `json:"tax_document_id"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	IsExchange    bool            `json:"is_exchange"`
	AlwaysHold    bool            `json:"always_hold"`
}

// CheckoutResponse reports the persisted order and whether the attempt failed.
type CheckoutResponse struct {
	Order  Order `json:"order"`
	Failed bool  `json:"failed"`
}

// Post /v1/checkout
// Place an order from the shopper's cart
func (api *CheckoutAPI) Checkout(c *gin.Context) {
	var payload CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	cart, err := api.carts.GetCart(c.Request.Context(), payload.ShopperGUID, payload.StoreCode)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	result, err := api.workflows.Checkout(c.Request.Context(), toDomainCheckoutRequest(payload, cart))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	status := http.StatusCreated
	if result.IsOrderFailed() {
		// The failed order is persisted for audit and returned with the
		// decline surfaced in the status.
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, CheckoutResponse{Order: fromDomainOrder(result.Order), Failed: result.Failed})
}

func toDomainCheckoutRequest(payload CheckoutRequest, cart *cartsdomain.Cart) checkoutdomain.Request {
	return checkoutdomain.Request{
		Cart: cart,
		Tax: checkoutdomain.TaxSnapshot{
			DocumentID: payload.TaxDocumentID,
			TaxTotal:   payload.TaxTotal,
		},
		Session: checkoutdomain.CustomerSession{
			ShopperGUID:  payload.ShopperGUID,
			CustomerGUID: payload.CustomerGUID,
			StoreCode:    payload.StoreCode,
		},
		Payment:    checkoutdomain.PaymentTemplate{Method: payload.PaymentMethod},
		IsExchange: payload.IsExchange,
		AlwaysHold: payload.AlwaysHold,
	}
}

func respondCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkoutapp.ErrInvalidCart),
		errors.Is(err, cartsdomain.ErrEmptyCart),
		errors.Is(err, cartsdomain.ErrUnpricedCart):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
