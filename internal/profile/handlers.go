package profile

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, store *RedisStore) {
	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := store.Load(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		var req UserProfile
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.ID = c.Params("id")
		p, err := store.Save(c.Context(), req)
		if errors.Is(err, ErrInvalidProfile) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})
}
