package constants

// Static route constants
const (
	HomeRoute          = "/"
	CheckoutRoute      = "/checkout"
	CheckoutPayRoute   = "/checkout/pay"
	PaymentReturnRoute = "/payment/return"
	// Order detail pages live under this prefix
	OrdersRoutePrefix = "/orders"
)
