package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	customersdomain "github.com/commercekit/commerce-core/internal/domains/customers/domain"
	apierrors "github.com/commercekit/commerce-core/internal/shared/errors"
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondError returns RFC 7807 responses for the given status.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	case http.StatusConflict:
		problem = apierrors.ErrConflict.WithDetail(err.Error())
	case http.StatusUnprocessableEntity:
		problem = apierrors.ErrUnprocessable.WithDetail(err.Error())
	case http.StatusUnauthorized:
		problem = apierrors.ErrUnauthorized.WithDetail(err.Error())
	case http.StatusForbidden:
		problem = apierrors.ErrForbidden.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

// respondValidationError surfaces machine-readable field errors as a
// validation problem with a code and fields extension.
func respondValidationError(c *gin.Context, validation *customersdomain.ValidationError) {
	problem := apierrors.NewValidationProblem(validation.Fields()).
		WithExtension("code", validation.Code)
	respondProblem(c, problem)
}

// maybeValidation routes customer ValidationErrors to the structured response.
func maybeValidation(c *gin.Context, err error) bool {
	var validation *customersdomain.ValidationError
	if errors.As(err, &validation) {
		respondValidationError(c, validation)
		return true
	}
	return false
}
