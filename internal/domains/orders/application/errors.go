package application

import (
	"errors"
	"fmt"

	"github.com/commercekit/commerce-core/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrCompleteShipmentFailed signals the capture was declined. A FAILED
	// capture row is still recorded so the ledger stays consistent.
	ErrCompleteShipmentFailed = errors.New("complete shipment failed: capture declined")
	// ErrReleaseShipmentFailed signals the re-authorization on release of a
	// pre/back-order hold was declined.
	ErrReleaseShipmentFailed = errors.New("release shipment failed: authorization declined")
	// ErrRefundDeclined signals the gateway declined a credit.
	ErrRefundDeclined = errors.New("refund declined by gateway")
	// ErrNoActiveAuthorization signals no capturable authorization remains
	// for the shipment.
	ErrNoActiveAuthorization = errors.New("no active authorization for shipment")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrIllegalTransition) ||
		errors.Is(err, domain.ErrShipmentNotReleasable) ||
		errors.Is(err, domain.ErrShipmentNotShippable) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
