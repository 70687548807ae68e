package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/round-submissions/models"
)

// Notifier publishes change notifications. Delivery is best effort.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload any) error
}

const GlobalEventsChannel = "eventsChanged"

// EventChannel is the channel scoped to a single event.
func EventChannel(eventID int) string {
	return fmt.Sprintf("event%dChanged", eventID)
}

type EventsChangedPayload struct {
	EventsChanged []models.Event `json:"eventsChanged"`
}

type EventChange struct {
	Event   models.Event `json:"event"`
	Message string       `json:"message"`
}

type EventChangedPayload struct {
	EventChanged EventChange `json:"eventChanged"`
}

// PublicEventsOnly strips events that are not publicly visible from the global
// channel before they reach next. Event channels pass through: their
// subscribers are authorized when they join.
func PublicEventsOnly(next Notifier) Notifier {
	return publicEventsOnly{next: next}
}

type publicEventsOnly struct {
	next Notifier
}

func (n publicEventsOnly) Publish(ctx context.Context, channel string, payload any) error {
	if channel != GlobalEventsChannel {
		return n.next.Publish(ctx, channel, payload)
	}
	p, ok := payload.(EventsChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", payload, channel)
	}
	visible := make([]models.Event, 0, len(p.EventsChanged))
	for _, e := range p.EventsChanged {
		if e.PubliclyVisible() {
			visible = append(visible, e)
		}
	}
	if len(visible) == 0 {
		return nil
	}
	return n.next.Publish(ctx, channel, EventsChangedPayload{EventsChanged: visible})
}

func submittedMessage(username string, round models.Round, eventName string) string {
	return fmt.Sprintf("%s has submitted for round %d of %s", username, round.Ordinal(), eventName)
}

func initialFileMessage(username, eventName string) string {
	return fmt.Sprintf("%s has set/changed the initial file for %s", username, eventName)
}
