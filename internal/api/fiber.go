package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// NewFiber builds the HTTP engine. The body limit leaves headroom above
// the configured max upload size so oversize uploads are rejected by the
// handler with a useful message instead of a bare 413.
func NewFiber(logger *logrus.Logger, maxUploadMB int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "cardcrop",
		BodyLimit:   (maxUploadMB + 2) * 1024 * 1024,
		JSONEncoder: jsoniter.Marshal,
		JSONDecoder: jsoniter.Unmarshal,
	})

	app.Use(cors.New())

	return app
}
