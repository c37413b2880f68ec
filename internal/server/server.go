package server

import (
	"context"
	"errors"
	"io"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	rr "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/vocalens/internal"
	"codeberg.org/snonux/vocalens/internal/camera"
	"codeberg.org/snonux/vocalens/internal/logging"
	"codeberg.org/snonux/vocalens/internal/recognition"
)

// Config holds the proxy settings
type Config struct {
	Addr      string
	BodyLimit int // bytes
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:      ":8080",
		BodyLimit: 10 * 1024 * 1024,
	}
}

// New builds the fiber app serving POST /api/gemini and GET /healthz
func New(config *Config, rec recognition.Recognizer, log *logrus.Entry) *fiber.App {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logging.Discard()
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             config.BodyLimit,
		AppName:               "vocalens version: " + internal.Version + " runtime: " + runtime.Version(),
		DisableStartupMessage: true,
	})

	app.Use(logger.New(logger.Config{
		Done: func(c *fiber.Ctx, logString []byte) {
			log.Debug(string(logString))
		},
		Format: "${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}",
		Output: io.Discard,
	}))
	app.Use(rr.New())

	h := &handler{rec: rec, log: log}
	app.All("/api/gemini", h.recognize)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "recognizer": rec.Name()})
	})

	return app
}

// Serve listens on addr until ctx is cancelled
func Serve(ctx context.Context, app *fiber.App, addr string, log *logrus.Entry) error {
	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(addr)
	}()
	log.WithField("addr", addr).Info("Recognition proxy listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return app.ShutdownWithTimeout(5 * time.Second)
	}
}

type handler struct {
	rec recognition.Recognizer
	log *logrus.Entry
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *handler) recognize(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(errorResponse{Error: "Method not allowed"})
	}

	var req recognition.RemoteRequest
	if err := c.BodyParser(&req); err != nil || req.ImageBase64 == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "No image provided"})
	}

	img, err := camera.DecodeBase64Image(req.ImageBase64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid image", Message: err.Error()})
	}

	result, err := h.rec.Recognize(c.UserContext(), img)
	if err != nil {
		h.log.WithError(err).Error("Recognition failed")
		if errors.Is(err, recognition.ErrEmptyResponse) {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Empty AI response"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Server error", Message: err.Error()})
	}

	h.log.WithField("word", result.English.Word).Info("Recognized proxied image")
	return c.JSON(result)
}
