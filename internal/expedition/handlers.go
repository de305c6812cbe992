package expedition

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

// maxHeroBytes caps hero image uploads at 2MB.
const maxHeroBytes = 2 << 20

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, optionalAuth fiber.Handler) {
	r.Get("/", optionalAuth, func(c *fiber.Ctx) error {
		actor := auth.ActorFromCtx(c)
		dec := policy.Decide(actor, nil, policy.OpList)
		if !dec.Allowed {
			return denialError(actor, dec)
		}
		actorID := ""
		if actor != nil {
			actorID = actor.ID
		}
		items, err := svc.List(c.Context(), dec.Scope, actorID, c.QueryInt("page", 1), c.QueryInt("per_page", defaultPerPage))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": items, "page": c.QueryInt("page", 1)})
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		actor := auth.ActorFromCtx(c)
		if dec := policy.Decide(actor, nil, policy.OpCreate); !dec.Allowed {
			return denialError(actor, dec)
		}
		var in Input
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		hero, err := heroUpload(c)
		if err != nil {
			return respondError(c, err)
		}
		created, err := svc.Create(c.Context(), actor.ID, in, hero)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/:id", optionalAuth, func(c *fiber.Ctx) error {
		d, err := svc.Detail(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		actor := auth.ActorFromCtx(c)
		res := policy.Resource{OwnerID: d.OwnerID, Published: d.IsPublished()}
		if dec := policy.Decide(actor, &res, policy.OpView); !dec.Allowed {
			return denialError(actor, dec)
		}
		return c.JSON(d)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		e, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		actor := auth.ActorFromCtx(c)
		res := policy.Resource{OwnerID: e.OwnerID, Published: e.IsPublished()}
		if dec := policy.Decide(actor, &res, policy.OpEdit); !dec.Allowed {
			return denialError(actor, dec)
		}
		var in Input
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		hero, err := heroUpload(c)
		if err != nil {
			return respondError(c, err)
		}
		updated, err := svc.Update(c.Context(), e.ID, in, hero)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(updated)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		e, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		actor := auth.ActorFromCtx(c)
		res := policy.Resource{OwnerID: e.OwnerID, Published: e.IsPublished()}
		if dec := policy.Decide(actor, &res, policy.OpDelete); !dec.Allowed {
			return denialError(actor, dec)
		}
		if err := svc.Delete(c.Context(), e.ID); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// heroUpload reads the optional "hero_image" multipart part. JSON
// requests simply have none.
func heroUpload(c *fiber.Ctx) (*blobstore.Upload, error) {
	fh, err := c.FormFile("hero_image")
	if err != nil {
		return nil, nil
	}

	v := apperr.NewValidation()
	if fh.Size > maxHeroBytes {
		v.Add("hero_image", "Hero image must not exceed 2MB.")
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
		v.Add("hero_image", "Hero image must be a valid image file.")
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
		return fiber.NewError(fiber.StatusNotFound, "expedition not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
