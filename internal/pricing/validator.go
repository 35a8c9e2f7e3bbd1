package pricing

import "github.com/dokyun/folio/internal/contracts"

// ValidateSellQuantity checks a sell request against the executable
// broker's own quantity. Only the API-connected broker can place orders,
// so the combined multi-broker quantity is irrelevant here.
//
// Returns (true, nil) when the request is executable; otherwise
// (false, *contracts.SellQuantityError) distinguishing "no quantity
// available" from "exceeds available quantity".
func ValidateSellQuantity(executableQty, requestedQty int64) (bool, error) {
	if requestedQty <= 0 {
		return false, &contracts.SellQuantityError{
			Kind:      contracts.SellQuantityNonPositive,
			Available: executableQty,
			Requested: requestedQty,
		}
	}

	if executableQty <= 0 {
		return false, &contracts.SellQuantityError{
			Kind:      contracts.SellQuantityNone,
			Available: executableQty,
			Requested: requestedQty,
		}
	}

	if requestedQty > executableQty {
		return false, &contracts.SellQuantityError{
			Kind:      contracts.SellQuantityExceeded,
			Available: executableQty,
			Requested: requestedQty,
		}
	}

	return true, nil
}
