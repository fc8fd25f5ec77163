package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status enumerates customer account states.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
)

// Machine-readable validation codes surfaced to API clients.
const (
	CodeRequiredField   = "customer.field.required"
	CodeInvalidEmail    = "customer.email.invalid"
	CodeDuplicateUserID = "customer.user_id.duplicate"
)

// ValidationError carries a machine-readable code plus the offending field and
// any contextual data, so the HTTP edge can build a structured problem
// response instead of parsing message strings.
type ValidationError struct {
	Code    string
	Field   string
	Message string
	Data    map[string]string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Fields flattens the error into the map shape the problem responder expects.
func (e *ValidationError) Fields() map[string]string {
	fields := map[string]string{e.Field: e.Message}
	for k, v := range e.Data {
		fields[k] = v
	}
	return fields
}

func requiredField(field string) *ValidationError {
	return &ValidationError{Code: CodeRequiredField, Field: field, Message: field + " is required"}
}

// Customer is a registered shopper account. UserID is the shopper-chosen
// identifier, unique within a store.
type Customer struct {
	GUID       string
	StoreCode  string
	UserID     string
	Email      string
	Name       string
	Status     Status
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// NewCustomer builds an active customer and validates required fields.
func NewCustomer(guid, storeCode, userID, email, name string) (*Customer, error) {
	now := time.Now().UTC()
	customer := &Customer{
		GUID:       guid,
		StoreCode:  strings.TrimSpace(storeCode),
		UserID:     strings.TrimSpace(userID),
		Email:      strings.TrimSpace(email),
		Name:       strings.TrimSpace(name),
		Status:     StatusActive,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	return customer, nil
}

// Validate re-applies field invariants for persistence.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.StoreCode) == "" {
		return requiredField("store_code")
	}
	if strings.TrimSpace(c.UserID) == "" {
		return requiredField("user_id")
	}
	if err := validEmail(c.Email); err != nil {
		return err
	}
	return nil
}

// UpdateProfile applies name and email edits.
func (c *Customer) UpdateProfile(name, email string) error {
	email = strings.TrimSpace(email)
	if err := validEmail(email); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(name)
	c.Email = email
	c.touch()
	return nil
}

// Disable blocks the account from starting new sessions.
func (c *Customer) Disable() {
	c.Status = StatusDisabled
	c.touch()
}

// Activate re-enables the account.
func (c *Customer) Activate() {
	c.Status = StatusActive
	c.touch()
}

func (c *Customer) touch() {
	c.ModifiedAt = time.Now().UTC()
}

func validEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return requiredField("email")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return &ValidationError{
			Code:    CodeInvalidEmail,
			Field:   "email",
			Message: "email address is malformed",
			Data:    map[string]string{"value": email},
		}
	}
	return nil
}

// DuplicateUserID reports a user id already registered in the store.
func DuplicateUserID(storeCode, userID string) *ValidationError {
	return &ValidationError{
		Code:    CodeDuplicateUserID,
		Field:   "user_id",
		Message: "user id is already registered in this store",
		Data:    map[string]string{"store_code": storeCode, "user_id": userID},
	}
}
