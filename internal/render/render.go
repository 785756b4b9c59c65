// Package render builds the user-facing texts of the storefront.
package render

import (
	"fmt"
	"strings"

	"storefront/bot/internal/domain"
)

const (
	Greeting            = "Привет! Выбери категорию товаров:"
	CatalogUnavailable  = "Каталог временно недоступен, попробуйте /start позже."
	CatalogBroken       = "Каталог сейчас недоступен: ошибка в таблице товаров."
	CatalogEmpty        = "Каталог пока пуст."
	ItemUnavailable     = "Товар больше недоступен, откройте категорию заново."
	EmptyCart           = "Ваша корзина пуста."
	OrderSent           = "Ваш заказ отправлен! Спасибо ❤️"
	OrderFailed         = "Не удалось оформить заказ, попробуйте ещё раз."
	AddToCartButton     = "Добавить в корзину"
	CheckoutButton      = "Оформить заказ"
	NoUsername          = "без ника"
	CheckoutPayload     = string(domain.ActionCheckout)
	addToCartCallback   = "%s добавлен(а) в корзину!"
	addToCartMessage    = "%s добавлен(а) в вашу корзину.\n\nДля оформления заказа напишите /cart"
	categoryHeader      = "Товары в категории %s:"
	emptyCategoryHeader = "В категории %s пока нет товаров."
)

// Formatter renders amounts with the shop currency
type Formatter struct {
	Currency string
}

func (f Formatter) ProductButton(p domain.Product) string {
	return fmt.Sprintf("%s — %d", p.Title, p.Price)
}

func (f Formatter) CategoryHeader(category string, empty bool) string {
	if empty {
		return fmt.Sprintf(emptyCategoryHeader, category)
	}
	return fmt.Sprintf(categoryHeader, category)
}

func (f Formatter) ProductCard(p domain.Product) string {
	return fmt.Sprintf("Название: %s\nОписание: %s\nЦена: %d%s\n\nНажмите кнопку, чтобы добавить в корзину.",
		p.Title, p.Description, p.Price, f.Currency)
}

func (f Formatter) AddedCallback(title string) string {
	return fmt.Sprintf(addToCartCallback, title)
}

func (f Formatter) AddedMessage(title string) string {
	return fmt.Sprintf(addToCartMessage, title)
}

func (f Formatter) lines(b *strings.Builder, summary domain.Summary) {
	for _, line := range summary.Lines {
		fmt.Fprintf(b, "%s — %d шт. × %d%s = %d%s\n",
			line.Title, line.Quantity, line.UnitPrice, f.Currency, line.Amount, f.Currency)
	}
	fmt.Fprintf(b, "\nИтого: %d%s", summary.Total, f.Currency)
}

func (f Formatter) Cart(summary domain.Summary) string {
	var b strings.Builder
	b.WriteString("Ваша корзина:\n\n")
	f.lines(&b, summary)
	return b.String()
}

// Order is the message delivered to the order chat
func (f Formatter) Order(order domain.Order) string {
	handle := NoUsername
	if order.Username != "" {
		handle = order.Username
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛒 Новый заказ №%s от @%s (id %d):\n\n", ShortID(order.ID), handle, order.UserID)
	f.lines(&b, order.Summary)
	return b.String()
}

// ShortID trims an order id to the part people read aloud
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
