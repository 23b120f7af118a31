package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"greenpulse/internal/airquality"
	"greenpulse/internal/rag"
	"greenpulse/internal/store"
	"greenpulse/internal/stream"
)

var validate = validator.New()

const serviceName = "GreenPulse"

// Deps are the collaborators the HTTP layer exposes.
type Deps struct {
	Latest  *store.LatestStore
	Hub     *stream.Hub
	Poller  *stream.Poller
	Backend *rag.Backend
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		names := make([]string, 0, len(airquality.Catalog()))
		for _, city := range airquality.Catalog() {
			names = append(names, city.Name)
		}
		return c.JSON(fiber.Map{
			"service": serviceName,
			"status":  "live",
			"cities":  names,
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "greenpulse",
		})
	})

	registerStream(app, deps.Hub)

	api := app.Group("/api")

	api.Get("/snapshot", func(c *fiber.Ctx) error {
		snap, err := deps.Latest.Current()
		if err != nil {
			if errors.Is(err, store.ErrNoSnapshot) {
				// First poll cycle still running; clients render empty state.
				return c.JSON(fiber.Map{
					"readings": []airquality.ZoneRecord{},
					"cities":   map[string]airquality.CityAggregate{},
				})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load snapshot")
		}
		return c.JSON(snap)
	})

	api.Get("/cities", func(c *fiber.Ctx) error {
		cities := make([]fiber.Map, 0, len(airquality.Catalog()))
		for _, city := range airquality.Catalog() {
			cities = append(cities, fiber.Map{
				"name":     city.Name,
				"stations": len(city.Stations),
				"color":    city.Color,
				"emoji":    city.Emoji,
			})
		}
		return c.JSON(fiber.Map{"cities": cities})
	})

	api.Post("/cities/select", func(c *fiber.Ctx) error {
		var req citySelection
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		active := deps.Poller.SelectCities(req.Cities)
		return c.JSON(fiber.Map{"status": "ok", "active": active})
	})

	api.Post("/chat", func(c *fiber.Ctx) error {
		question, err := parseChatRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var answer []byte
		var sources []rag.SourceRef
		for frag := range deps.Backend.Ask(c.Context(), question) {
			switch frag.Kind {
			case rag.KindText, rag.KindError:
				answer = append(answer, frag.Text...)
			case rag.KindDone:
				sources = frag.Sources
			}
		}
		if sources == nil {
			sources = []rag.SourceRef{}
		}
		return c.JSON(fiber.Map{"answer": string(answer), "sources": sources})
	})

	api.Post("/chat/stream", func(c *fiber.Ctx) error {
		question, err := parseChatRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		// The stream writer runs after this handler returns, so it cannot
		// use the request context; the cancel below is the only way the
		// answering goroutine learns the client went away.
		ctx, cancel := context.WithCancel(context.Background())
		fragments := deps.Backend.Ask(ctx, question)

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()

			var sources []rag.SourceRef
			for frag := range fragments {
				if frag.Kind == rag.KindDone {
					sources = frag.Sources
					continue
				}
				if frag.Text == "" {
					continue
				}
				if err := writeEvent(w, fiber.Map{"token": frag.Text}); err != nil {
					return
				}
			}
			if sources == nil {
				sources = []rag.SourceRef{}
			}
			_ = writeEvent(w, fiber.Map{"done": true, "sources": sources})
		}))
		return nil
	})

	api.Get("/rag/status", func(c *fiber.Ctx) error {
		status := deps.Backend.Status()
		var errMsg any
		if status.Err != nil {
			errMsg = status.Err.Error()
		}
		return c.JSON(fiber.Map{
			"loaded": status.State != rag.StateNotStarted,
			"ready":  status.State == rag.StateReady,
			"stage":  status.Stage,
			"error":  errMsg,
		})
	})

	api.Post("/rag/preload", func(c *fiber.Ctx) error {
		deps.Backend.Preload()
		return c.JSON(fiber.Map{"status": "loading_triggered"})
	})
}

// citySelection is the body of POST /api/cities/select.
type citySelection struct {
	Cities []string `json:"cities" validate:"required"`
}

// chatRequest is the body of the chat endpoints.
type chatRequest struct {
	Question string `json:"question" validate:"required"`
}

func parseChatRequest(c *fiber.Ctx) (string, error) {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return "", errors.New("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	return req.Question, nil
}

// writeEvent writes one server-sent event and flushes it so tokens reach
// the client as they are produced.
func writeEvent(w *bufio.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
