package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	customersdomain "github.com/commercekit/commerce-core/internal/domains/customers/domain"
	customersports "github.com/commercekit/commerce-core/internal/domains/customers/ports"
)

// CustomerAPI wires HTTP transport with the customers bounded context.
type CustomerAPI struct {
	service customersports.Service
}

// NewCustomerAPI creates a CustomerAPI backed by the provided service.
func NewCustomerAPI(service customersports.Service) CustomerAPI {
	return CustomerAPI{service: service}
}

// Customer is the transport representation of a customer account.
type Customer struct {
	GUID       string    `json:"guid"`
	StoreCode  string    `json:"store_code"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Post /v1/customers
// Register a customer account
func (api *CustomerAPI) Register(c *gin.Context) {
	var payload struct {
		StoreCode string `json:"store_code" binding:"required"`
		UserID    string `json:"user_id" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Name      string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	customer, err := api.service.Register(c.Request.Context(), payload.StoreCode, payload.UserID, payload.Email, payload.Name)
	if err != nil {
		respondCustomerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromDomainCustomer(customer))
}

// Get /v1/customers/:customerGuid
// Fetch a customer account
func (api *CustomerAPI) Get(c *gin.Context) {
	customer, err := api.service.Get(c.Request.Context(), c.Param("customerGuid"))
	if err != nil {
		respondCustomerError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainCustomer(customer))
}

// Put /v1/customers/:customerGuid
// Update name and email
func (api *CustomerAPI) UpdateProfile(c *gin.Context) {
	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	customer, err := api.service.UpdateProfile(c.Request.Context(), c.Param("customerGuid"), payload.Name, payload.Email)
	if err != nil {
		respondCustomerError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainCustomer(customer))
}

// Delete /v1/customers/:customerGuid
// Remove the account and revoke its session
func (api *CustomerAPI) Delete(c *gin.Context) {
	if err := api.service.Delete(c.Request.Context(), c.Param("customerGuid")); err != nil {
		respondCustomerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /v1/customers/:customerGuid/sessions
// Issue a session token
func (api *CustomerAPI) StartSession(c *gin.Context) {
	token, err := api.service.StartSession(c.Request.Context(), c.Param("customerGuid"))
	if err != nil {
		respondCustomerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// Delete /v1/customers/:customerGuid/sessions
// Revoke the session token
func (api *CustomerAPI) EndSession(c *gin.Context) {
	if err := api.service.EndSession(c.Request.Context(), c.Param("customerGuid")); err != nil {
		respondCustomerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondCustomerError(c *gin.Context, err error) {
	if maybeValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, customersports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, customersports.ErrAccountDisabled):
		respondError(c, http.StatusForbidden, err)
	case errors.Is(err, customersports.ErrNoSession):
		respondError(c, http.StatusNotFound, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func fromDomainCustomer(customer *customersdomain.Customer) Customer {
	return Customer{
		GUID:       customer.GUID,
		StoreCode:  customer.StoreCode,
		UserID:     customer.UserID,
		Email:      customer.Email,
		Name:       customer.Name,
		Status:     string(customer.Status),
		CreatedAt:  customer.CreatedAt,
		ModifiedAt: customer.ModifiedAt,
	}
}
