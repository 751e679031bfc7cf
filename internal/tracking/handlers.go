package tracking

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/sessions", func(c *fiber.Ctx) error {
		var req StartRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		view, err := svc.StartSession(c.UserContext(), req.UserID)
		if err != nil {
			return toFiberError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(view)
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		view, err := svc.Get(c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/fixes", func(c *fiber.Ctx) error {
		var req FixRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.AddFix(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(result)
	})

	commands := map[string]func(string) (View, error){
		"start":  svc.Start,
		"pause":  svc.Pause,
		"resume": svc.Resume,
		"clear":  svc.Clear,
	}
	for name, cmd := range commands {
		cmd := cmd
		r.Post("/sessions/:id/"+name, func(c *fiber.Ctx) error {
			view, err := cmd(c.Params("id"))
			if err != nil {
				return toFiberError(err)
			}
			return c.JSON(view)
		})
	}

	r.Post("/sessions/:id/finish", func(c *fiber.Ctx) error {
		result, err := svc.Finish(c.UserContext(), c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(result)
	})

	r.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if err := svc.Discard(c.Params("id")); err != nil {
			return toFiberError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidFix), errors.Is(err, ErrUserRequired):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
