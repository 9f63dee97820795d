// Package notify fans order lifecycle events out to email and push,
// localized to the recipient's language.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"haat/internal/apperr"
	"haat/internal/models"
)

type Event struct {
	UserID      string
	OrderID     string
	OrderNumber string
	Kind        models.NotificationKind
	Status      models.OrderStatus
	Language    models.Language
	Name        string
	Email       string
	PushToken   string
}

// Dispatcher delivers an event. Implementations must tolerate retries of the
// same event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender is one delivery channel's transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Service records one NotificationEvent per channel and skips channels that
// already delivered this (order, kind).
type Service struct {
	db      *gorm.DB
	senders map[models.Channel]Sender
	lg      *zap.SugaredLogger
	now     func() time.Time
}

func NewService(db *gorm.DB, email, push Sender, lg *zap.SugaredLogger) *Service {
	senders := map[models.Channel]Sender{}
	if email != nil {
		senders[models.ChannelEmail] = email
	}
	if push != nil {
		senders[models.ChannelPush] = push
	}
	return &Service{db: db, senders: senders, lg: lg, now: time.Now}
}

func (s *Service) channels(ev Event) []models.Channel {
	var out []models.Channel
	if ev.Email != "" && s.senders[models.ChannelEmail] != nil {
		out = append(out, models.ChannelEmail)
	}
	if ev.PushToken != "" && s.senders[models.ChannelPush] != nil {
		out = append(out, models.ChannelPush)
	}
	return out
}

func (s *Service) Dispatch(ctx context.Context, ev Event) error {
	if ev.OrderID == "" || ev.Kind == "" {
		return apperr.Validation("notification needs an order and a kind")
	}
	lang := ResolveLanguage(string(ev.Language))
	var errs []error
	for _, ch := range s.channels(ev) {
		if err := s.deliver(ctx, ch, lang, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
		}
	}
	if len(errs) > 0 {
		return apperr.Wrap(apperr.KindDeliveryFailed, errors.Join(errs...), "notification for order %s not delivered", ev.OrderNumber)
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, ch models.Channel, lang models.Language, ev Event) error {
	var sent int64
	err := s.db.WithContext(ctx).Model(&models.NotificationEvent{}).
		Where("order_id = ? AND kind = ? AND channel = ? AND outcome = ?", ev.OrderID, ev.Kind, ch, models.OutcomeSent).
		Count(&sent).Error
	if err != nil {
		return err
	}
	if sent > 0 {
		s.lg.Debugw("notification already delivered", "order", ev.OrderNumber, "kind", ev.Kind, "channel", ch)
		return nil
	}

	msg := Render(lang, ev)
	msg.To = ev.Email
	if ch == models.ChannelPush {
		msg.To = ev.PushToken
	}
	sendErr := s.senders[ch].Send(ctx, msg)

	row := models.NotificationEvent{
		UserID:       ev.UserID,
		OrderID:      ev.OrderID,
		Kind:         ev.Kind,
		Channel:      ch,
		Status:       ev.Status,
		Language:     lang,
		Outcome:      models.OutcomeSent,
		DispatchedAt: s.now(),
	}
	if sendErr != nil {
		row.Outcome = models.OutcomeFailed
		row.Error = truncate(sendErr.Error(), 500)
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		s.lg.Warnw("notification event not recorded", "order", ev.OrderNumber, "kind", ev.Kind, "channel", ch, "error", err)
	}
	return sendErr
}

// LogSender writes messages to the log instead of a provider.
type LogSender struct {
	Channel models.Channel
	Lg      *zap.SugaredLogger
}

func (l LogSender) Send(_ context.Context, msg Message) error {
	l.Lg.Infow("notification", "channel", l.Channel, "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
