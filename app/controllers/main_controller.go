package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
)

// The storefront pages themselves are rendered by the web frontend; these
// handlers only expose the data a page needs, including any flash message
// left behind by the payment return flow.

func HandleHome(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"page":  "home",
		"flash": flash.Get(c),
	})
}

func HandleCheckout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"page":  "checkout",
		"flash": flash.Get(c),
	})
}

func HandleOrder(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil || orderID <= 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"page":    "order",
		"orderId": orderID,
		"flash":   flash.Get(c),
	})
}
