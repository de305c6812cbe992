package media

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"backend-peakjournal/internal/auth"
	"backend-peakjournal/internal/blobstore"
	"backend-peakjournal/internal/policy"
	"backend-peakjournal/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

// maxUploadBytes caps gallery photo uploads at 10MB.
const maxUploadBytes = 10 << 20

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
		items, err := svc.ListByExpedition(c.Context(), expeditionID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(items)
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
		file, err := photoUpload(c)
		if err != nil {
			return respondError(c, err)
		}
		created, err := svc.Create(c.Context(), expeditionID, in, file)
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

// photoUpload reads the optional "file" part. A multipart request
// without one is fine for video media; the service validates the
// combination.
func photoUpload(c *fiber.Ctx) (*blobstore.Upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil
	}

	v := apperr.NewValidation()
	if fh.Size > maxUploadBytes {
		v.Add("file", "Photo must not exceed 10MB.")
		return nil, v.Err()
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		v.Add("file", "Photo must be a valid image file.")
		return nil, v.Err()
	}
	return &blobstore.Upload{Filename: fh.Filename, Data: data}, nil
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
