// Package dummymail collects sent messages in memory; used by tests and the
// TEST environment.
package dummymail

import (
	"sync"

	"github.com/shulehq/shule/core"
)

type Service struct {
	mu         sync.Mutex
	subjPrefix string
	sent       []core.EmailMessage
}

var _ core.EmailService = (*Service)(nil)

func NewService(appName string) *Service {
	return &Service{subjPrefix: "[" + appName + "] "}
}

func (svc *Service) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range messages {
		if msg.HasRecipients() && msg.HasContent() {
			sent := *msg
			sent.Subject = svc.subjPrefix + sent.Subject
			svc.sent = append(svc.sent, sent)
		}
	}
}

// SentMessages snapshots everything sent so far.
func (svc *Service) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.sent))
	copy(out, svc.sent)
	return out
}

// Reset clears the outbox between tests.
func (svc *Service) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
}
