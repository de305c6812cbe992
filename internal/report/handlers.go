package report

import (
	"errors"

	"backend-peakjournal/internal/auth"
	"backend-peakjournal/internal/policy"
	"backend-peakjournal/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, optionalAuth fiber.Handler) {
	r.Get("/", optionalAuth, func(c *fiber.Ctx) error {
		expeditionID := c.Params("expedition_id")
		parent, err := svc.Parent(c.Context(), expeditionID)
		if err != nil {
			return respondError(c, err)
		}
		actor := auth.ActorFromCtx(c)
		if dec := policy.Decide(actor, &parent, policy.OpView); !dec.Allowed {
			return denialError(actor, dec)
		}
		reports, err := svc.ListByExpedition(c.Context(), expeditionID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(reports)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		expeditionID := c.Params("expedition_id")
		parent, err := svc.Parent(c.Context(), expeditionID)
		if err != nil {
			return respondError(c, err)
		}
		actor := auth.ActorFromCtx(c)
		if dec := policy.Decide(actor, &parent, policy.OpEdit); !dec.Allowed {
			return denialError(actor, dec)
		}
		var in Input
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		created, err := svc.Create(c.Context(), expeditionID, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		expeditionID := c.Params("expedition_id")
		parent, err := svc.Parent(c.Context(), expeditionID)
		if err != nil {
			return respondError(c, err)
		}
		actor := auth.ActorFromCtx(c)
		if dec := policy.Decide(actor, &parent, policy.OpEdit); !dec.Allowed {
			return denialError(actor, dec)
		}
		var in Input
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := svc.Update(c.Context(), expeditionID, c.Params("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(updated)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		expeditionID := c.Params("expedition_id")
		parent, err := svc.Parent(c.Context(), expeditionID)
		if err != nil {
			return respondError(c, err)
		}
		actor := auth.ActorFromCtx(c)
		if dec := policy.Decide(actor, &parent, policy.OpEdit); !dec.Allowed {
			return denialError(actor, dec)
		}
		if err := svc.Delete(c.Context(), expeditionID, c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func denialError(actor *policy.Actor, dec policy.Decision) error {
	if actor == nil {
		return fiber.NewError(fiber.StatusUnauthorized, dec.Reason)
	}
	return fiber.NewError(fiber.StatusForbidden, dec.Reason)
}

func respondError(c *fiber.Ctx, err error) error {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": verr.Fields})
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "resource not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
