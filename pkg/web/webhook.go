// Package web exposes the GitHub webhook endpoint and the health probes.
package web

import (
	"bytes"
	"log/slog"

	"github.com/giselles-ai/giselle-sub003/pkg/eventbus"
	"github.com/giselles-ai/giselle-sub003/pkg/events"
	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/gofiber/fiber/v3"
	"github.com/google/go-github/v74/github"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	eventHeader     = "X-GitHub-Event"
	deliveryHeader  = "X-GitHub-Delivery"
)

type WebhookHandler struct {
	secret    []byte
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewWebhookHandler(secret []byte, publisher eventbus.EventPublisher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		publisher: publisher,
		logger:    logger,
	}
}

// GitHub verifies a delivery, queues it for dispatch and answers 202 without
// waiting for any run.
func (h *WebhookHandler) GitHub(c fiber.Ctx) error {
	payload := bytes.Clone(c.Body())

	if err := github.ValidateSignature(c.Get(signatureHeader), payload, h.secret); err != nil {
		h.logger.Warn("Rejected webhook delivery", "delivery_id", c.Get(deliveryHeader), "error", err)

		return unauthorized(c, "signature does not match the configured secret")
	}

	githubEvent := c.Get(eventHeader)
	if githubEvent == "" {
		return badRequest(c, "missing "+eventHeader+" header")
	}

	ev, err := event.Parse(githubEvent, c.Get(deliveryHeader), payload)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.publisher.Publish(c.Context(), events.DeliveriesTopic, ev.DeliveryID, events.NewDeliveryReceived(ev)); err != nil {
		h.logger.Error("Failed to queue webhook delivery", "delivery_id", ev.DeliveryID, "error", err)

		return internalError(c)
	}

	h.logger.Debug("Queued webhook delivery", "delivery_id", ev.DeliveryID, "event", ev.Name)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"delivery_id": ev.DeliveryID,
		"event":       ev.Name,
	})
}
