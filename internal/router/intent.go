package router

import (
	"strings"

	"storefront/bot/internal/domain"
)

type Intent int

const (
	IntentUnknown Intent = iota
	IntentStart
	IntentSelectCategory
	IntentViewProduct
	IntentAddToCart
	IntentShowCart
	IntentCheckout
)

func (i Intent) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentSelectCategory:
		return "select_category"
	case IntentViewProduct:
		return "view_product"
	case IntentAddToCart:
		return "add_to_cart"
	case IntentShowCart:
		return "show_cart"
	case IntentCheckout:
		return "checkout"
	default:
		return "unknown"
	}
}

const (
	commandStart = "/start"
	commandCart  = "/cart"
)

// Classify derives the intent from the shape of the update alone.
func (r *Router) Classify(u domain.Update) Intent {
	if u.IsCallback() {
		data := u.CallbackData
		switch {
		case data == string(domain.ActionCheckout):
			return IntentCheckout
		case strings.HasPrefix(data, string(domain.ActionView)+"_"):
			return IntentViewProduct
		case strings.HasPrefix(data, string(domain.ActionAdd)+"_"):
			return IntentAddToCart
		default:
			return IntentUnknown
		}
	}

	switch command(u.Text) {
	case commandStart:
		return IntentStart
	case commandCart:
		return IntentShowCart
	}

	if u.Text != "" && r.catalog.HasCategory(u.Text) {
		return IntentSelectCategory
	}
	return IntentUnknown
}

// command extracts "/name" from "/name@BotName args"
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text)[0]
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	return name
}
