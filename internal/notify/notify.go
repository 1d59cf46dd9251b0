// Package notify delivers customer notifications over email and SMS.
// Delivery failures are reported as an Outcome and never returned to the
// caller as errors.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/config"
	"github.com/ifixandrepair/shop-api/internal/metrics"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type Kind string

const (
	KindConfirmation       Kind = "confirmation"
	KindStatusUpdate       Kind = "status_update"
	KindReadyForPickup     Kind = "ready_for_pickup"
	KindPartsNeeded        Kind = "parts_needed"
	KindDiagnosticComplete Kind = "diagnostic_complete"
)

// Outcome is the result of one delivery attempt. The zero value means no
// attempt was made.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Payload carries the values the templates render. Amounts and dates are
// preformatted by the caller.
type Payload struct {
	CustomerName        string
	OrderNumber         string
	DeviceInfo          string
	IssueDescription    string
	CurrentStage        string
	EstimatedCompletion string
	Notes               string
	TotalAmount         string
}

type Notification struct {
	Channel Channel
	Kind    Kind
	To      string
	Payload Payload
}

// NotificationError wraps a transport or rendering failure.
type NotificationError struct {
	Channel Channel
	Kind    Kind
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s %s notification: %v", e.Channel, e.Kind, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// EmailSender delivers one rendered email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Dispatcher renders and delivers notifications. A nil SMSSender means SMS
// is not configured and every SMS is skipped.
type Dispatcher struct {
	email    EmailSender
	sms      SMSSender
	business config.BusinessInfo
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewDispatcher(email EmailSender, sms SMSSender, business config.BusinessInfo, m *metrics.Metrics, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		email:    email,
		sms:      sms,
		business: business,
		metrics:  m,
		log:      log.Named("notify"),
	}
}

// Notify attempts one delivery and reports the outcome.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) (outcome Outcome) {
	fields := []zap.Field{
		zap.String("channel", string(n.Channel)),
		zap.String("kind", string(n.Kind)),
		zap.String("order_number", n.Payload.OrderNumber),
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification panicked", append(fields, zap.Any("panic", r))...)
			outcome = OutcomeFailed
		}
		d.metrics.ObserveNotification(string(n.Channel), string(n.Kind), string(outcome))
	}()

	var err error
	switch n.Channel {
	case ChannelEmail:
		if d.email == nil {
			d.log.Info("email not configured, notification not sent", fields...)
			return OutcomeSkipped
		}
		err = d.sendEmail(ctx, n)
	case ChannelSMS:
		if d.sms == nil {
			d.log.Info("twilio not configured, sms not sent", fields...)
			return OutcomeSkipped
		}
		err = d.sendSMS(ctx, n)
	default:
		err = &NotificationError{Channel: n.Channel, Kind: n.Kind, Err: fmt.Errorf("unknown channel")}
	}

	if err != nil {
		d.log.Warn("notification failed", append(fields, zap.Error(err))...)
		return OutcomeFailed
	}

	d.log.Info("notification sent", fields...)
	return OutcomeSent
}

func (d *Dispatcher) sendEmail(ctx context.Context, n Notification) error {
	htmlBody, textBody, err := renderEmail(n.Kind, d.view(n.Payload))
	if err != nil {
		return &NotificationError{Channel: ChannelEmail, Kind: n.Kind, Err: err}
	}
	if err := d.email.SendEmail(ctx, n.To, d.subject(n), htmlBody, textBody); err != nil {
		return &NotificationError{Channel: ChannelEmail, Kind: n.Kind, Err: err}
	}
	return nil
}

func (d *Dispatcher) sendSMS(ctx context.Context, n Notification) error {
	body, err := renderSMS(n.Kind, d.view(n.Payload))
	if err != nil {
		return &NotificationError{Channel: ChannelSMS, Kind: n.Kind, Err: err}
	}
	if err := d.sms.SendSMS(ctx, n.To, body); err != nil {
		return &NotificationError{Channel: ChannelSMS, Kind: n.Kind, Err: err}
	}
	return nil
}

func (d *Dispatcher) subject(n Notification) string {
	if n.Kind == KindConfirmation {
		return "Repair Request Confirmed - " + d.business.Name
	}
	return "Repair Update - Order " + n.Payload.OrderNumber
}

func (d *Dispatcher) view(p Payload) templateData {
	if p.CustomerName == "" {
		p.CustomerName = "Customer"
	}
	return templateData{Payload: p, Business: d.business}
}
