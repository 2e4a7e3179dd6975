// Package moderation implements the governance core: the idea/comment
// lifecycle, the penalty and appeal engines, the watchlist monitor, and the
// audit recorder.
package moderation

import (
	"context"

	"civica/notifications"
)

// Notifier is the outbound alert dependency. Dispatch is fire-and-forget;
// implementations must never block the caller.
type Notifier interface {
	Notify(ctx context.Context, note notifications.Notification)
}

// Event kinds form a closed set; each maps to a fixed topic/priority/tags
// profile below. Adding a kind means adding a profile.
const (
	EventIdeaApproved     = "idea.approved"
	EventIdeaRejected     = "idea.rejected"
	EventIdeaEditRejected = "idea.edit_rejected"
	EventIdeaDeleted      = "idea.deleted"
	EventCommentHidden    = "comment.hidden"
	EventPenaltyIssued    = "penalty.issued"
	EventPenaltyExpired   = "penalty.expired"
	EventAppealSubmitted  = "appeal.submitted"
	EventAppealDecided    = "appeal.decided"
	EventUserWatchlisted  = "watchlist.flagged"
	EventWatchlistCleared = "watchlist.cleared"
)

type eventProfile struct {
	Topic    string
	Priority string
	Tags     []string
}

var eventProfiles = map[string]eventProfile{
	EventIdeaApproved:     {Topic: "moderation", Priority: notifications.PriorityLow, Tags: []string{"idea"}},
	EventIdeaRejected:     {Topic: "moderation", Priority: notifications.PriorityLow, Tags: []string{"idea"}},
	EventIdeaEditRejected: {Topic: "moderation", Priority: notifications.PriorityLow, Tags: []string{"idea", "edit"}},
	EventIdeaDeleted:      {Topic: "moderation", Priority: notifications.PriorityDefault, Tags: []string{"idea", "removal"}},
	EventCommentHidden:    {Topic: "moderation", Priority: notifications.PriorityLow, Tags: []string{"comment"}},
	EventPenaltyIssued:    {Topic: "penalties", Priority: notifications.PriorityHigh, Tags: []string{"penalty"}},
	EventPenaltyExpired:   {Topic: "penalties", Priority: notifications.PriorityMin, Tags: []string{"penalty"}},
	EventAppealSubmitted:  {Topic: "appeals", Priority: notifications.PriorityHigh, Tags: []string{"appeal"}},
	EventAppealDecided:    {Topic: "appeals", Priority: notifications.PriorityDefault, Tags: []string{"appeal"}},
	EventUserWatchlisted:  {Topic: "watchlist", Priority: notifications.PriorityHigh, Tags: []string{"watchlist"}},
	EventWatchlistCleared: {Topic: "watchlist", Priority: notifications.PriorityLow, Tags: []string{"watchlist"}},
}

// notifyEvent dispatches a catalog event through the notifier, if one is set.
func notifyEvent(ctx context.Context, n Notifier, kind, title, message, clickURL string) {
	if n == nil {
		return
	}
	profile, ok := eventProfiles[kind]
	if !ok {
		profile = eventProfile{Topic: "moderation", Priority: notifications.PriorityDefault}
	}
	n.Notify(ctx, notifications.Notification{
		Topic:    profile.Topic,
		Title:    title,
		Message:  message,
		ClickURL: clickURL,
		Priority: profile.Priority,
		Tags:     profile.Tags,
	})
}
