package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Dosada05/round-submissions/repositories"
)

var eventChannelPattern = regexp.MustCompile(`^event([1-9][0-9]*)Changed$`)

// SubscriptionService decides who may listen on a notification channel.
type SubscriptionService interface {
	// AuthorizeChannel returns nil when requesterID (nil for anonymous) may
	// subscribe to channel. The global channel is open to everyone; an event
	// channel follows the event's visibility rule.
	AuthorizeChannel(ctx context.Context, channel string, requesterID *int) error
}

type subscriptionService struct {
	eventRepo repositories.EventRepository
}

func NewSubscriptionService(eventRepo repositories.EventRepository) SubscriptionService {
	return &subscriptionService{eventRepo: eventRepo}
}

func (s *subscriptionService) AuthorizeChannel(ctx context.Context, channel string, requesterID *int) error {
	if channel == GlobalEventsChannel {
		return nil
	}
	m := eventChannelPattern.FindStringSubmatch(channel)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
	eventID, err := strconv.Atoi(m[1])
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}

	visible, err := s.eventRepo.IsVisible(ctx, eventID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to authorize subscription to %s: %w", channel, err)
	}
	// Missing and hidden events look the same to the subscriber.
	if !visible {
		return ErrAccessDenied
	}
	return nil
}
