package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tmasplus/fleet-admin/internal/realtime"
	"github.com/tmasplus/fleet-admin/internal/service"
)

type NotificationHandler struct {
	Notifications service.NotificationService
	Hub           *realtime.Hub

	// Resync hint sent to clients when they connect.
	PollingIntervalMS int
}

type CreateNotificationReq struct {
	UserID    *string        `json:"user_id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	Data      datatypes.JSON `json:"data"`
	BookingID *string        `json:"booking_id"`
}

func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var req CreateNotificationReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		errs.Add("message", "Message is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	input := service.CreateNotificationInput{
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Data:    req.Data,
	}
	if req.UserID != nil && *req.UserID != "" {
		userID, err := uuid.Parse(*req.UserID)
		if err != nil {
			errs.Add("user_id", "Invalid user id")
			return validationFail(c, errs)
		}
		input.UserID = &userID
	}
	if req.BookingID != nil && *req.BookingID != "" {
		bookingID, err := uuid.Parse(*req.BookingID)
		if err == nil {
			input.BookingID = &bookingID
		}
	}

	n, err := h.Notifications.Create(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}
	return created(c, "Notification sent", n)
}

func (h *NotificationHandler) ListForUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	result, err := h.Notifications.ListForUser(c.Context(), id, pageParams(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", result)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Notifications.MarkRead(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, "Notification marked read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Notifications.MarkAllRead(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, "All notifications marked read", nil)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	count, err := h.Notifications.UnreadCount(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", fiber.Map{"unread": count})
}

// UpgradeRequired gates the websocket route: plain HTTP requests get a 426.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Stream is the live notification feed. The JWT middlewares run before the
// upgrade, so the user id is already in Locals.
func (h *NotificationHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uidStr, _ := conn.Locals("userId").(string)
		uid, err := uuid.Parse(uidStr)
		if err != nil {
			conn.Close()
			return
		}

		client := &realtime.Client{
			ID:     uuid.NewString(),
			UserID: uid,
			Conn:   realtime.NewWebSocketConn(conn),
			Send:   make(chan []byte, 64),
		}
		h.Hub.RegisterClient(client)
		defer h.Hub.UnregisterClient(client)

		hello, _ := json.Marshal(fiber.Map{
			"event":               "hello",
			"polling_interval_ms": h.PollingIntervalMS,
		})
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return
		}

		go func() {
			for msg := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		// The feed is one-way; reads only notice the disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
