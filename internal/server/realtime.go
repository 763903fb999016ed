package server

import (
	"context"

	"unigram/internal/featureflags"
	"unigram/internal/service"
)

// flaggedPublisher drops realtime pushes for users outside the
// realtime_push rollout. An unconfigured flag leaves push on for everyone.
type flaggedPublisher struct {
	flags *featureflags.Manager
	next  service.RealtimePublisher
}

func (p flaggedPublisher) Deliver(ctx context.Context, userID uint, eventType string, payload any) error {
	if !p.flags.EnabledOr(featureflags.RealtimePush, userID, true) {
		return nil
	}
	return p.next.Deliver(ctx, userID, eventType, payload)
}
