package message

import (
	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/user"
)

// CreateHooks is the ordered pre-write chain the repository applies before
// persisting a new message. Sender spoofing is prevented here: whatever the
// payload claimed, the sender is the acting user.
var CreateHooks = []func(actor *user.User, msg *Message){
	stampSender,
	fillSchoolFromActor,
	defaults,
	stampSentAt,
}

func ApplyCreateHooks(actor *user.User, msg *Message) {
	for _, hook := range CreateHooks {
		hook(actor, msg)
	}
}

func stampSender(actor *user.User, msg *Message) {
	if actor != nil {
		msg.Sender = actor.ID
	}
}

func fillSchoolFromActor(actor *user.User, msg *Message) {
	if msg.School == 0 && actor != nil && actor.School.Valid {
		msg.School = actor.School.Int
	}
}

func defaults(_ *user.User, msg *Message) {
	if msg.Status == "" {
		msg.Status = StatusDraft
	}
	if msg.Priority == "" {
		msg.Priority = PriorityNormal
	}
	if len(msg.DeliveryMethods) == 0 {
		msg.DeliveryMethods = []string{DeliveryInApp, DeliveryEmail}
	}
}

func stampSentAt(_ *user.User, msg *Message) {
	if msg.Status == StatusSent && msg.SentAt.IsZero() {
		msg.SentAt = core.Now()
	}
}
