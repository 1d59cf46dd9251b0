package service

import (
	"encoding/json"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/ws"
)

// Event types published to the live board.
const (
	EventOrderCreated         = "order.created"
	EventOrderStageChanged    = "order.stage_changed"
	EventOrderPaymentRecorded = "order.payment_recorded"
)

// EventPublisher fans an event out to one websocket room.
// Satisfied by *ws.Hub.
type EventPublisher interface {
	Broadcast(room string, event ws.Event)
}

type orderEventPayload struct {
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNumber"`
	CurrentStage string `json:"currentStage"`
	TotalAmount  string `json:"totalAmount"`
	PaidAmount   string `json:"paidAmount"`
	PaymentID    string `json:"paymentId,omitempty"`
}

// publish sends the event to the admin board and the order's own room.
func (s *OrderService) publish(eventType string, order database.PosOrder, payment *database.Payment) {
	if s.events == nil {
		return
	}

	p := orderEventPayload{
		OrderID:      order.ID.String(),
		OrderNumber:  order.OrderNumber,
		CurrentStage: order.CurrentStage,
		TotalAmount:  numericToDecimal(order.TotalAmount).StringFixed(2),
		PaidAmount:   numericToDecimal(order.PaidAmount).StringFixed(2),
	}
	if payment != nil {
		p.PaymentID = payment.ID.String()
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	event := ws.Event{Type: eventType, Payload: raw}
	s.events.Broadcast(ws.BoardRoom, event)
	s.events.Broadcast(order.ID.String(), event)
}
