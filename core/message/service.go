package message

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/user"
)

type Service struct {
	repo    Repository
	users   user.Repository
	mailSvc core.EmailService
	log     core.Logger
}

func NewService(repo Repository, users user.Repository, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{repo: repo, users: users, mailSvc: mailSvc, log: log}
}

// Compose persists a new message on behalf of actor. Messages saved as SENT
// with the EMAIL delivery method are handed to the email service; delivery
// itself is fire-and-forget.
func (svc *Service) Compose(ctx context.Context, actor *user.User, nm NewMessage) (Message, error) {
	msg := Message{
		Subject:         nm.Subject,
		Content:         nm.Content,
		Recipients:      nm.Recipients,
		MessageType:     nm.MessageType,
		Priority:        nm.Priority,
		School:          nm.School,
		Status:          nm.Status,
		DeliveryMethods: nm.DeliveryMethods,
	}
	ApplyCreateHooks(actor, &msg)

	msg, err := svc.repo.Create(ctx, msg)
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}

	if msg.Status == StatusSent && msg.HasDeliveryMethod(DeliveryEmail) {
		svc.notifyByEmail(ctx, msg)
	}
	return msg, nil
}

func (svc *Service) MarkAsRead(ctx context.Context, actor *user.User, messageID int) (bool, error) {
	return svc.repo.MarkAsRead(ctx, messageID, actor.ID)
}

// HasDeliveryMethod reports whether m should go out via the given method.
func (m *Message) HasDeliveryMethod(method string) bool {
	for _, dm := range m.DeliveryMethods {
		if dm == method {
			return true
		}
	}
	return false
}

func (svc *Service) notifyByEmail(ctx context.Context, msg Message) {
	to := make([]mail.Address, 0, len(msg.Recipients))
	for _, id := range msg.Recipients {
		rcpt, err := svc.users.FindByID(ctx, id)
		if err != nil {
			svc.log.Warn("message: skipping email for unknown recipient", errors.Wrapf(err, "recipient %d", id))
			continue
		}
		to = append(to, mail.Address{Name: rcpt.FullName(), Address: rcpt.Email})
	}
	if len(to) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      to,
		Subject: msg.Subject,
		BodyStr: msg.Content,
	})
}
