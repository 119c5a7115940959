// Package chat turns raw user utterances plus optional structured hints into
// enriched conversations for a language-model collaborator, with a
// deterministic fallback when that collaborator is absent or failing.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
	"github.com/mkaydev/auto-shop/internal/notify"
)

// conversationWindow is how many recent messages go to the model each turn.
const conversationWindow = 10

// fallbackReply is returned when the completer is unreachable, errors, or
// answers empty. The turn still succeeds from the caller's perspective.
const fallbackReply = "I'm having trouble answering right now. Please call us at " + ShopPhone +
	" and our team will be happy to help you directly."

// Pipeline resolves sessions, enriches turns with business context, and
// dispatches to the configured completer.
type Pipeline struct {
	store        SessionStore
	completer    ChatCompleter
	appointments db.AppointmentCollection
	vehicles     db.VehicleCollection
	notifier     notify.Notifier
}

// NewPipeline wires the chat context pipeline.
func NewPipeline(store SessionStore, completer ChatCompleter, appointments db.AppointmentCollection, vehicles db.VehicleCollection, notifier notify.Notifier) *Pipeline {
	return &Pipeline{
		store:        store,
		completer:    completer,
		appointments: appointments,
		vehicles:     vehicles,
		notifier:     notifier,
	}
}

// TurnRequest is one inbound chat turn.
type TurnRequest struct {
	SessionID     string
	Message       string
	AppointmentID string
	VehicleID     string
	Actor         *models.User
}

// TurnResponse is what the caller gets back: always a reply, real or
// fallback.
type TurnResponse struct {
	SessionID string             `json:"session_id"`
	Reply     models.ChatMessage `json:"reply"`
	Fallback  bool               `json:"fallback"`
}

// resolveSession looks up the client-supplied id or mints a fresh session.
func (p *Pipeline) resolveSession(ctx context.Context, id string, actor *models.User) *models.ChatSession {
	if id != "" {
		if session, err := p.store.Get(ctx, id); err == nil {
			return session
		}
	}
	now := time.Now()
	session := &models.ChatSession{
		ID:        fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Messages:  []models.ChatMessage{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actor != nil {
		session.UserID = actor.ID.Hex()
	}
	return session
}

// enrich builds this turn's context in order: actor profile, then
// appointment (with its vehicle), then an explicitly supplied vehicle.
// Earlier keys are not overwritten by later steps. The result is merged into
// the session so context accumulates across turns.
func (p *Pipeline) enrich(ctx context.Context, session *models.ChatSession, req TurnRequest) {
	var turn models.SessionContext

	if req.Actor != nil {
		turn.Customer = &models.CustomerSnapshot{
			Name:  req.Actor.FullName(),
			Email: req.Actor.Email,
			Phone: req.Actor.Phone,
		}
	}

	if req.AppointmentID != "" {
		if appointment, err := p.appointments.FindAppointmentByID(ctx, req.AppointmentID); err == nil {
			turn.Appointment = &models.AppointmentSnapshot{
				Status:   string(appointment.Status),
				Date:     appointment.Date.Format("2006-01-02"),
				Time:     appointment.TimeOfDay,
				Concerns: appointment.Concerns,
			}
			if appointment.VehicleID != "" && session.Context.Vehicle == nil {
				if vehicle, err := p.vehicles.FindVehicleByID(ctx, appointment.VehicleID); err == nil {
					turn.Vehicle = vehicleSnapshot(vehicle)
				}
			}
		}
	} else if req.VehicleID != "" && session.Context.Vehicle == nil {
		if vehicle, err := p.vehicles.FindVehicleByID(ctx, req.VehicleID); err == nil {
			turn.Vehicle = vehicleSnapshot(vehicle)
		}
	}

	session.Context.Merge(turn)
}

func vehicleSnapshot(v *models.Vehicle) *models.VehicleSnapshot {
	return &models.VehicleSnapshot{Make: v.Make, Model: v.Model, Year: v.Year, VIN: v.VIN}
}

// SendMessage processes one chat turn. Collaborator failures are recovered
// locally: the caller always receives an assistant reply.
func (p *Pipeline) SendMessage(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	session := p.resolveSession(ctx, req.SessionID, req.Actor)
	p.enrich(ctx, session, req)

	now := time.Now()
	session.Messages = append(session.Messages, models.ChatMessage{
		Sender:    models.SenderUser,
		Text:      req.Message,
		Timestamp: now,
	})

	reply, usedFallback := p.complete(ctx, session)

	aiMessage := models.ChatMessage{
		Sender:    models.SenderAI,
		Text:      reply,
		Timestamp: time.Now(),
	}
	session.Messages = append(session.Messages, aiMessage)
	session.IsActive = true
	session.UpdatedAt = time.Now()

	if err := p.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if session.UserID != "" {
		p.notifier.PublishUser(session.UserID, notify.NewEvent("chat.message", map[string]interface{}{
			"session_id": session.ID,
			"text":       aiMessage.Text,
		}))
	}

	return &TurnResponse{SessionID: session.ID, Reply: aiMessage, Fallback: usedFallback}, nil
}

func (p *Pipeline) complete(ctx context.Context, session *models.ChatSession) (string, bool) {
	window := session.Messages
	if len(window) > conversationWindow {
		window = window[len(window)-conversationWindow:]
	}
	messages := make([]Message, 0, len(window))
	for _, m := range window {
		role := "user"
		if m.Sender == models.SenderAI {
			role = "assistant"
		}
		messages = append(messages, Message{Role: role, Content: m.Text})
	}

	reply, err := p.completer.Complete(ctx, CompletionRequest{
		System:   p.buildSystemPrompt(session.Context),
		Messages: messages,
		Context:  session.Context,
	})
	if err != nil || reply == "" {
		if err != nil {
			log.WithFields(log.Fields{"session_id": session.ID, "completer": p.completer.Name()}).
				WithError(err).Warn("Completion failed, using fallback reply")
		}
		return fallbackReply, true
	}
	return reply, false
}

// buildSystemPrompt assembles the preamble: shop identity, live open/closed
// state, the service menu, the behavioral policy, and accumulated context.
func (p *Pipeline) buildSystemPrompt(sessionContext models.SessionContext) string {
	now := time.Now()
	openState := "currently CLOSED"
	if IsOpenAt(now) {
		openState = "currently OPEN"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are the virtual assistant for %s, an auto repair shop.\n", ShopName)
	fmt.Fprintf(&b, "Address: %s. Phone: %s.\n", ShopAddress, ShopPhone)
	fmt.Fprintf(&b, "Hours: %s. The shop is %s.\n\n", HoursText(), openState)
	b.WriteString("Services and prices:\n")
	b.WriteString(MenuText())
	b.WriteString("\nBe concise. Ask clarifying questions when the request is ambiguous. ")
	b.WriteString("Escalate complex or urgent issues to the shop team. ")
	b.WriteString("Always offer the option of speaking with a human at the shop phone number.\n")
	if lines := ContextString(sessionContext); lines != "" {
		b.WriteString("\nWhat we know about this customer:\n")
		b.WriteString(lines)
	}
	return b.String()
}

// History returns a session's message log. A session tagged with a user id
// is readable only by that user or staff; the error does not distinguish
// a missing session from a denied one.
func (p *Pipeline) History(ctx context.Context, sessionID string, actor *models.User) (*models.ChatSession, error) {
	session, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != "" {
		if actor == nil || (!actor.IsStaff() && actor.ID.Hex() != session.UserID) {
			return nil, ErrSessionNotFound
		}
	}
	return session, nil
}

// ContextString serializes the accumulated context bag as labeled lines for
// inclusion in model prompts.
func ContextString(c models.SessionContext) string {
	var b strings.Builder
	if c.Customer != nil {
		fmt.Fprintf(&b, "Customer: %s (%s, %s)\n", c.Customer.Name, c.Customer.Email, c.Customer.Phone)
	}
	if c.Vehicle != nil {
		fmt.Fprintf(&b, "Vehicle: %d %s %s, VIN %s\n", c.Vehicle.Year, c.Vehicle.Make, c.Vehicle.Model, c.Vehicle.VIN)
	}
	if c.Appointment != nil {
		fmt.Fprintf(&b, "Appointment: %s on %s at %s, %s\n",
			c.Appointment.Status, c.Appointment.Date, c.Appointment.Time, c.Appointment.Concerns)
	}
	return b.String()
}

// CleanupLoop runs the session sweep on a ticker until the context is done.
func (p *Pipeline) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := p.store.Cleanup(ctx, SessionTTL)
			if err != nil {
				log.WithError(err).Warn("Session cleanup sweep failed")
				continue
			}
			if removed > 0 {
				log.WithFields(log.Fields{"removed": removed}).Info("Swept stale chat sessions")
			}
		}
	}
}
