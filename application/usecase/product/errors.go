package product

import (
	"errors"

	"github.com/vendora/vendora/application/port/outbound"
	domainerror "github.com/vendora/vendora/domain/error"
)

// translateError maps store and recorder failures to the error catalog. ssns
// names the keys involved for conflict details.
func translateError(operation, productID string, err error, ssns ...string) error {
	if err == nil {
		return nil
	}

	var appErr *domainerror.AppError
	switch {
	case errors.As(err, &appErr):
		if appErr.Code == domainerror.ErrCodeAuditWriteFailed {
			return domainerror.ErrTransactionFailure(operation, err)
		}
		return appErr
	case errors.Is(err, outbound.ErrProductNotFound):
		return domainerror.ErrProductNotFound(productID)
	case errors.Is(err, outbound.ErrDuplicateSSN):
		return domainerror.ErrDuplicateSSN(ssns...)
	default:
		return domainerror.ErrTransactionFailure(operation, err)
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
