package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mhsong/shopfront/app/controllers"
	"github.com/mhsong/shopfront/internal/pkg/constants"
	"github.com/mhsong/shopfront/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Initialize checkout controller with backend client, intent store and recorder
	controllers.InitializeCheckoutController()

	app.Get(constants.HomeRoute, controllers.HandleHome)
	app.Get(constants.CheckoutRoute, controllers.HandleCheckout)
	app.Get(constants.CheckoutPayRoute, controllers.HandleCheckoutPay)
	app.Get(constants.PaymentReturnRoute, controllers.HandlePaymentReturn)
	app.Get(constants.OrdersRoutePrefix+"/:id", controllers.HandleOrder)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
