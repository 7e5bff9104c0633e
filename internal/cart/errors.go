package cart

import "errors"

var (
	// ErrStockExceeded rejects an add or quantity change that would take a
	// line past the product's available stock. The cart is left unchanged.
	ErrStockExceeded = errors.New("cannot exceed available stock")

	// ErrEmptyCart rejects a checkout attempt on a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrCheckoutInFlight rejects any mutation or second checkout while a
	// checkout is awaiting the sales processor.
	ErrCheckoutInFlight = errors.New("checkout already in progress")

	// ErrProductUnavailable rejects adding a product that is inactive or
	// out of stock.
	ErrProductUnavailable = errors.New("product is not available for sale")

	// ErrCurrencyMismatch rejects adding a product priced in a currency
	// other than the cart's.
	ErrCurrencyMismatch = errors.New("product currency does not match cart currency")

	// ErrLineNotFound is returned by SetQuantity for an unknown product.
	ErrLineNotFound = errors.New("product is not in the cart")

	// ErrInvalidPaymentType rejects a payment type outside the known set.
	ErrInvalidPaymentType = errors.New("unknown payment type")
)
