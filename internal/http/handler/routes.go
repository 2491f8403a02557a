package handler

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"civireport/internal/identity"
	"civireport/internal/repository"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	DB          *sql.DB
	Sessions    *SessionRegistry
	Reports     repository.ReportRepository
	Enrollments *identity.EnrollmentStore
	Auth        *identity.PushBackend
	Metrics     *prometheus.Registry
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoint: checks DB connectivity only.
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := deps.DB.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe.
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	if deps.Metrics != nil {
		app.Get("/metrics", func(c *fiber.Ctx) error {
			mfs, err := deps.Metrics.Gather()
			if err != nil {
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
			var buf bytes.Buffer
			enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
			for _, mf := range mfs {
				if err := enc.Encode(mf); err != nil {
					return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				}
			}
			c.Set(fiber.HeaderContentType, string(expfmt.NewFormat(expfmt.TypeTextPlain)))
			return c.Send(buf.Bytes())
		})
	}

	registerCaptureRoutes(app, deps.Sessions)

	// Read-back endpoints for stored reports.
	app.Get("/v1/reports", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil || limit <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil || offset < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := deps.Reports.List(c.UserContext(), repository.PageQuery{Limit: limit, Offset: offset})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": res.Items, "total": res.Total})
	})

	app.Get("/v1/reports/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rep, err := deps.Reports.FindByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "report not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(rep)
	})

	// Device-local enrollment registry (low-literacy flow).
	app.Post("/v1/devices/:deviceId/enrollment", func(c *fiber.Ctx) error {
		var body struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON")
		}
		if body.Name == "" || body.Phone == "" {
			return writeError(c, fiber.StatusBadRequest, "FIELDS_REQUIRED", "name and phone are required")
		}
		e := deps.Enrollments.Enroll(c.Params("deviceId"), body.Name, body.Phone)
		return c.Status(fiber.StatusCreated).JSON(e)
	})

	app.Delete("/v1/devices/:deviceId/enrollment", func(c *fiber.Ctx) error {
		deps.Enrollments.Clear(c.Params("deviceId"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Auth boundary webhook: the external auth system pushes session state
	// changes; the reconciler consumes the resulting notifications.
	app.Post("/v1/auth/events", func(c *fiber.Ctx) error {
		var body struct {
			Event   identity.AuthEvent `json:"event"`
			Profile *identity.Profile  `json:"profile"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON")
		}
		switch body.Event {
		case identity.EventSignedIn:
			deps.Auth.SetSession(true, body.Profile)
		case identity.EventSignedOut:
			deps.Auth.SetSession(false, nil)
		case identity.EventTokenRefreshed:
			if body.Profile != nil {
				deps.Auth.SetSession(true, body.Profile)
			}
		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_EVENT", "unknown auth event")
		}
		deps.Auth.Emit(body.Event)
		return c.SendStatus(fiber.StatusAccepted)
	})
}
