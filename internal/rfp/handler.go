package rfp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Post("/api/search", h.search)

	app.Get("/api/rfps", h.listRFPs)
	app.Get("/api/rfps/:id", h.getRFP)
	app.Post("/api/rfps", h.createRFP)
	app.Put("/api/rfps/:id", h.updateRFP)
	app.Delete("/api/rfps/:id", h.deleteRFP)
}

// search answers hypermedia requests with an HTML fragment.
func (h *Handler) search(c *fiber.Ctx) error {
	query, ok := formValue(c, "query")
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString(`missing form field "query"`)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("query must be at most %d characters", MaxQueryLength))
	}

	results, err := h.service.Search(c.UserContext(), query)
	if err != nil {
		h.log.Error("search failed",
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.Error(err),
		)
		return sendHTML(c, fiber.StatusInternalServerError, func(buf *bytes.Buffer) error {
			return RenderError(buf, "Search is temporarily unavailable. Please try again.")
		})
	}

	return sendHTML(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
		return RenderResults(buf, query, results)
	})
}

func (h *Handler) listRFPs(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		return h.internalError(c, "list rfps", err)
	}
	return c.JSON(items)
}

func (h *Handler) getRFP(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}

	item, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "RFP not found"})
		}
		return h.internalError(c, "get rfp", err)
	}
	return c.JSON(item)
}

func (h *Handler) createRFP(c *fiber.Ctx) error {
	in := new(CreateInput)
	if err := c.BodyParser(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Create(c.UserContext(), *in)
	if err != nil {
		var ve ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ve})
		}
		return h.internalError(c, "create rfp", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateRFP(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}

	in := new(UpdateInput)
	if err := c.BodyParser(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	updated, err := h.service.Update(c.UserContext(), id, *in)
	if err != nil {
		var ve ValidationError
		switch {
		case errors.As(err, &ve):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ve})
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "RFP not found"})
		default:
			return h.internalError(c, "update rfp", err)
		}
	}
	return c.JSON(updated)
}

func (h *Handler) deleteRFP(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "RFP not found"})
		}
		return h.internalError(c, "delete rfp", err)
	}
	return c.JSON(fiber.Map{"message": "RFP deleted"})
}

func (h *Handler) internalError(c *fiber.Ctx, op string, err error) error {
	h.log.Error(op+" failed",
		zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "storage unavailable"})
}

func sendHTML(c *fiber.Ctx, status int, render func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// formValue reads a field from a urlencoded or multipart body and reports
// whether it was present at all, so an empty query is distinguishable from a
// missing one.
func formValue(c *fiber.Ctx, key string) (string, bool) {
	if args := c.Request().PostArgs(); args.Has(key) {
		return string(args.Peek(key)), true
	}
	if form, err := c.MultipartForm(); err == nil {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return v[0], true
		}
	}
	return "", false
}
