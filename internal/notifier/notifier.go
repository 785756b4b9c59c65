package notifier

import (
	"context"
	"fmt"

	"storefront/bot/internal/domain"
	"storefront/bot/internal/render"

	log "github.com/sirupsen/logrus"
)

// Sender is the transport the notifier delivers through
type Sender interface {
	Send(ctx context.Context, chatID int64, reply domain.Reply) error
}

// OrderNotifier posts completed orders to the shop's order chat
type OrderNotifier struct {
	sender      Sender
	orderChatID int64
	format      render.Formatter
}

func NewOrderNotifier(sender Sender, orderChatID int64, format render.Formatter) *OrderNotifier {
	return &OrderNotifier{
		sender:      sender,
		orderChatID: orderChatID,
		format:      format,
	}
}

// Notify delivers the order. Any failure wraps domain.ErrDeliveryFailed.
func (n *OrderNotifier) Notify(ctx context.Context, order domain.Order) error {
	text := n.format.Order(order)

	if err := n.sender.Send(ctx, n.orderChatID, domain.Reply{Text: text}); err != nil {
		return fmt.Errorf("%w: order %s for user %d: %w", domain.ErrDeliveryFailed, order.ID, order.UserID, err)
	}

	log.Infof("📦 Order %s from user %d delivered, total %d", order.ID, order.UserID, order.Summary.Total)
	return nil
}
