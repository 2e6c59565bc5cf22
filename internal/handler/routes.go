package handler

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/middleware"
	ws "github.com/netcopilot/api/internal/websocket"
	"github.com/netcopilot/api/pkg/response"
)

// Routes groups everything mounted on the fiber app. Limiter and Hub are
// optional.
type Routes struct {
	Lookup  *LookupHandler
	Capture *CaptureHandler
	People  *PeopleHandler
	Hub     *ws.Hub
	Limiter *middleware.RateLimiter
	Limits  config.RateLimitConfig
	// Health reports component readiness for GET /health.
	Health func() fiber.Map
}

// Register mounts the API, health and websocket routes on app.
func (r *Routes) Register(app *fiber.App) {
	lookupLimit, captureLimit := passThrough, passThrough
	if r.Limiter != nil {
		lookupLimit = r.Limiter.LookupLimit(r.Limits.LookupPerMin)
		captureLimit = r.Limiter.CaptureLimit(r.Limits.CapturePerHour)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok", "timestamp": time.Now().Unix()}
		if r.Health != nil {
			body["services"] = r.Health()
		}
		return c.JSON(body)
	})

	api := app.Group("/api")

	api.Post("/search", lookupLimit, r.Lookup.Search)
	api.Post("/lookup", lookupLimit, r.Lookup.Lookup)
	api.Post("/profile", lookupLimit, r.Lookup.Profile)
	api.Post("/crew/run", lookupLimit, r.Lookup.RunCrew)

	api.Post("/captures", captureLimit, r.Capture.Submit)
	api.Get("/captures/:jobId", r.Capture.Status)

	api.Get("/people", r.People.List)
	api.Get("/people/:id", r.People.Get)
	api.Post("/chat", lookupLimit, r.People.Chat)

	if r.Hub == nil {
		return
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/captures/:jobId", websocket.New(func(c *websocket.Conn) {
		r.Hub.HandleConnection(c, c.Params("jobId"))
	}))
}

func passThrough(c *fiber.Ctx) error { return c.Next() }

// ErrorHandler renders unhandled errors in the JSON error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
