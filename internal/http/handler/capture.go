package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"civireport/internal/capture"
	"civireport/internal/model"
)

// sessionView is the read model returned by capture session endpoints.
type sessionView struct {
	ID              string          `json:"id"`
	State           capture.State   `json:"state"`
	Type            string          `json:"type"`
	RecordedSeconds int             `json:"recorded_seconds"`
	HasAudio        bool            `json:"has_audio"`
	Position        *model.Position `json:"position"`
	HasImage        bool            `json:"has_image"`
	Error           *errorEnvelope  `json:"error"`
	Report          *model.Report   `json:"report"`
}

func viewOf(s *captureSession) sessionView {
	snap := s.Orch.Snapshot()
	v := sessionView{
		ID:              s.ID,
		State:           snap.State,
		Type:            snap.Type,
		RecordedSeconds: snap.RecordedSeconds,
		HasAudio:        snap.HasAudio,
		Position:        snap.Position,
		HasImage:        snap.HasImage,
		Report:          snap.Result,
	}
	if snap.LastError != nil {
		v.Error = &errorEnvelope{Code: string(snap.LastError.Code), Message: snap.LastError.Message}
	}
	return v
}

// registerCaptureRoutes attaches the capture session API.
func registerCaptureRoutes(app *fiber.App, sessions *SessionRegistry) {
	// Open a draft session.
	app.Post("/v1/captures", func(c *fiber.Ctx) error {
		var body struct {
			Type           string `json:"type"`
			DeviceID       string `json:"device_id"`
			AudioMediaType string `json:"audio_media_type"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON")
		}
		if body.Type == "" {
			return writeError(c, fiber.StatusBadRequest, "TYPE_REQUIRED", "report type is required")
		}
		s := sessions.Create(body.Type, body.DeviceID, body.AudioMediaType)
		return c.Status(fiber.StatusCreated).JSON(viewOf(s))
	})

	withSession := func(h func(c *fiber.Ctx, s *captureSession) error) fiber.Handler {
		return func(c *fiber.Ctx) error {
			id := c.Params("id")
			if _, err := uuid.Parse(id); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
			}
			s, ok := sessions.Get(id)
			if !ok {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "capture session not found")
			}
			return h(c, s)
		}
	}

	app.Get("/v1/captures/:id", withSession(func(c *fiber.Ctx, s *captureSession) error {
		return c.JSON(viewOf(s))
	}))

	// Start recording; geolocation auto-capture fires concurrently.
	// The device reports its microphone permission outcome up front.
	app.Post("/v1/captures/:id/recording/start", withSession(func(c *fiber.Ctx, s *captureSession) error {
		var body struct {
			MediaType  string `json:"media_type"`
			Microphone string `json:"microphone"` // "", "denied" or "unsupported"
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON")
			}
		}
		s.Mic.SetMediaType(body.MediaType)
		switch body.Microphone {
		case "denied":
			s.Mic.ReportPermission(true)
		case "unsupported":
			s.Mic.ReportUnsupported()
		}

		if err := s.Orch.StartRecording(s.ctx); err != nil {
			return writeCaptureError(c, err)
		}
		return c.JSON(viewOf(s))
	}))

	// Stream recorded bytes while the recorder runs.
	app.Post("/v1/captures/:id/recording/chunks", withSession(func(c *fiber.Ctx, s *captureSession) error {
		if err := s.Orch.AppendAudio(c.Body()); err != nil {
			return writeCaptureError(c, err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	}))

	app.Post("/v1/captures/:id/recording/stop", withSession(func(c *fiber.Ctx, s *captureSession) error {
		if err := s.Orch.StopRecording(); err != nil {
			return writeCaptureError(c, err)
		}
		return c.JSON(viewOf(s))
	}))

	// Device position feed and manual placement share one endpoint; the
	// source field decides. A manual placement permanently disables auto
	// mode for this draft.
	app.Put("/v1/captures/:id/position", withSession(func(c *fiber.Ctx, s *captureSession) error {
		var body struct {
			Latitude       float64 `json:"latitude"`
			Longitude      float64 `json:"longitude"`
			AccuracyMeters float64 `json:"accuracy_meters"`
			Source         string  `json:"source"`
			Denied         bool    `json:"denied"`
			Unavailable    bool    `json:"unavailable"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON")
		}

		switch {
		case body.Source == string(model.PositionManual):
			s.Orch.SetManualPosition(body.Latitude, body.Longitude, body.AccuracyMeters)
		case body.Denied:
			s.Geo.ReportDenied()
		case body.Unavailable:
			s.Geo.ReportUnavailable()
		default:
			s.Geo.ReportFix(body.Latitude, body.Longitude, body.AccuracyMeters)
		}
		return c.JSON(viewOf(s))
	}))

	// Optional photo step (multipart/form-data, field name: photo).
	app.Put("/v1/captures/:id/photo", withSession(func(c *fiber.Ctx, s *captureSession) error {
		fh, err := c.FormFile("photo")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "photo file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		ct := fh.Header.Get("Content-Type")
		if err := s.Orch.AttachPhoto(c.UserContext(), data, ct); err != nil {
			return writeCaptureError(c, err)
		}
		return c.JSON(viewOf(s))
	}))

	app.Delete("/v1/captures/:id/photo", withSession(func(c *fiber.Ctx, s *captureSession) error {
		s.Orch.RemovePhoto()
		return c.JSON(viewOf(s))
	}))

	// Submit: the single attempt per user action. Repeats while a submission
	// runs are rejected without a second create.
	app.Post("/v1/captures/:id/submit", withSession(func(c *fiber.Ctx, s *captureSession) error {
		report, err := s.Orch.Submit(s.ctx)
		if err != nil {
			return writeCaptureError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(report)
	}))

	app.Post("/v1/captures/:id/reset", withSession(func(c *fiber.Ctx, s *captureSession) error {
		if err := s.Orch.Reset(); err != nil {
			return writeCaptureError(c, err)
		}
		return c.JSON(viewOf(s))
	}))

	app.Delete("/v1/captures/:id", withSession(func(c *fiber.Ctx, s *captureSession) error {
		sessions.Delete(s.ID)
		return c.SendStatus(fiber.StatusNoContent)
	}))
}
