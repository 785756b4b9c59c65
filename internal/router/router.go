package router

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"storefront/bot/internal/domain"
	"storefront/bot/internal/render"
	"storefront/bot/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Catalog interface {
	Reload(ctx context.Context) error
	Categories() []string
	HasCategory(name string) bool
	Category(name string) (domain.Category, error)
	Resolve(ref domain.SelectionReference) (domain.Product, error)
}

type Carts interface {
	Add(userID int64, product domain.Product) domain.Cart
	Snapshot(userID int64) domain.Cart
	Checkout(userID int64, place func(domain.Cart) error) error
}

type Pricer interface {
	Summarize(cart domain.Cart) domain.Summary
}

type Notifier interface {
	Notify(ctx context.Context, order domain.Order) error
}

type Messenger interface {
	Send(ctx context.Context, chatID int64, reply domain.Reply) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Dependencies wires the router to its stores and transport
type Dependencies struct {
	Catalog   Catalog
	Carts     Carts
	Pricer    Pricer
	Notifier  Notifier
	Messenger Messenger
	Journal   repository.OrderJournal
	Format    render.Formatter
}

// Router turns inbound updates into catalog/cart operations and replies.
// It keeps no per-user session: each update carries everything it needs.
type Router struct {
	catalog   Catalog
	carts     Carts
	pricer    Pricer
	notifier  Notifier
	messenger Messenger
	journal   repository.OrderJournal
	format    render.Formatter

	now   func() time.Time
	newID func() string
}

func New(deps Dependencies) *Router {
	journal := deps.Journal
	if journal == nil {
		journal = repository.NewNoopJournal()
	}

	return &Router{
		catalog:   deps.Catalog,
		carts:     deps.Carts,
		pricer:    deps.Pricer,
		notifier:  deps.Notifier,
		messenger: deps.Messenger,
		journal:   journal,
		format:    deps.Format,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Handle runs the handler for one update. Errors and panics stay inside this
// call; unrecognized input produces no reply.
func (r *Router) Handle(ctx context.Context, u domain.Update) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("💥 Panic while handling update %d: %v\n%s", u.ID, rec, debug.Stack())
			err = fmt.Errorf("panic handling update %d: %v", u.ID, rec)
		}
	}()

	intent := r.Classify(u)
	log.Debugf("Update %d from user %d classified as %s", u.ID, u.From.ID, intent)

	switch intent {
	case IntentStart:
		return r.start(ctx, u)
	case IntentSelectCategory:
		return r.selectCategory(ctx, u)
	case IntentViewProduct:
		return r.viewProduct(ctx, u)
	case IntentAddToCart:
		return r.addToCart(ctx, u)
	case IntentShowCart:
		return r.showCart(ctx, u)
	case IntentCheckout:
		return r.checkout(ctx, u)
	default:
		return nil
	}
}

func (r *Router) start(ctx context.Context, u domain.Update) error {
	if err := r.catalog.Reload(ctx); err != nil {
		log.Warnf("⚠️ Catalog reload for user %d failed: %v", u.From.ID, err)
		text := render.CatalogUnavailable
		if errors.Is(err, domain.ErrFeedMalformed) {
			text = render.CatalogBroken
		}
		return r.messenger.Send(ctx, u.ChatID, domain.Reply{Text: text})
	}

	categories := r.catalog.Categories()
	if len(categories) == 0 {
		return r.messenger.Send(ctx, u.ChatID, domain.Reply{Text: render.CatalogEmpty})
	}

	return r.messenger.Send(ctx, u.ChatID, domain.Reply{Text: render.Greeting, Menu: categories})
}

func (r *Router) selectCategory(ctx context.Context, u domain.Update) error {
	category, err := r.catalog.Category(u.Text)
	if err != nil {
		// Gone between classification and lookup; treat like unknown text.
		log.Debugf("Category %q vanished: %v", u.Text, err)
		return nil
	}

	buttons := make([][]domain.Button, 0, len(category.Products))
	for i, p := range category.Products {
		ref := domain.SelectionReference{
			Action:   domain.ActionView,
			Version:  category.Version,
			Category: category.Index,
			Position: i,
		}
		data, err := ref.Encode()
		if err != nil {
			log.Warnf("⚠️ Skipping %q in %q: %v", p.Title, category.Name, err)
			continue
		}
		buttons = append(buttons, []domain.Button{{Text: r.format.ProductButton(p), Data: data}})
	}

	return r.messenger.Send(ctx, u.ChatID, domain.Reply{
		Text:    r.format.CategoryHeader(category.Name, len(category.Products) == 0),
		Buttons: buttons,
	})
}

// resolve decodes a callback reference. A stale or invalid reference is
// answered on the callback and reported as ErrNotFound.
func (r *Router) resolve(ctx context.Context, u domain.Update) (domain.SelectionReference, domain.Product, error) {
	ref, err := domain.ParseSelection(u.CallbackData)
	if err == nil {
		var p domain.Product
		if p, err = r.catalog.Resolve(ref); err == nil {
			return ref, p, nil
		}
	}

	log.Infof("Stale selection %q from user %d: %v", u.CallbackData, u.From.ID, err)
	if answerErr := r.messenger.AnswerCallback(ctx, u.CallbackID, render.ItemUnavailable); answerErr != nil {
		return ref, domain.Product{}, answerErr
	}
	return ref, domain.Product{}, domain.ErrNotFound
}

func (r *Router) viewProduct(ctx context.Context, u domain.Update) error {
	ref, product, err := r.resolve(ctx, u)
	if err != nil {
		return ignoreNotFound(err)
	}

	if err := r.messenger.AnswerCallback(ctx, u.CallbackID, ""); err != nil {
		log.Warnf("⚠️ Failed to answer callback %s: %v", u.CallbackID, err)
	}

	reply := domain.Reply{Text: r.format.ProductCard(product), Photo: product.Photo}

	ref.Action = domain.ActionAdd
	if data, err := ref.Encode(); err != nil {
		log.Warnf("⚠️ No add-to-cart button for %q: %v", product.Title, err)
	} else {
		reply.Buttons = [][]domain.Button{{{Text: render.AddToCartButton, Data: data}}}
	}

	err = r.messenger.Send(ctx, u.ChatID, reply)
	if err != nil && reply.Photo != "" {
		log.Warnf("⚠️ Photo for %q failed, sending text instead: %v", product.Title, err)
		reply.Photo = ""
		err = r.messenger.Send(ctx, u.ChatID, reply)
	}
	return err
}

func (r *Router) addToCart(ctx context.Context, u domain.Update) error {
	_, product, err := r.resolve(ctx, u)
	if err != nil {
		return ignoreNotFound(err)
	}

	cart := r.carts.Add(u.From.ID, product)
	log.Infof("🛒 User %d added %q (now %d)", u.From.ID, product.Title, cart.Quantity(product.Title))

	if err := r.messenger.AnswerCallback(ctx, u.CallbackID, r.format.AddedCallback(product.Title)); err != nil {
		log.Warnf("⚠️ Failed to answer callback %s: %v", u.CallbackID, err)
	}
	return r.messenger.Send(ctx, u.ChatID, domain.Reply{Text: r.format.AddedMessage(product.Title)})
}

func (r *Router) showCart(ctx context.Context, u domain.Update) error {
	cart := r.carts.Snapshot(u.From.ID)
	if cart.IsEmpty() {
		return r.messenger.Send(ctx, u.ChatID, domain.Reply{Text: render.EmptyCart})
	}

	summary := r.pricer.Summarize(cart)
	return r.messenger.Send(ctx, u.ChatID, domain.Reply{
		Text:    r.format.Cart(summary),
		Buttons: [][]domain.Button{{{Text: render.CheckoutButton, Data: render.CheckoutPayload}}},
	})
}

// checkout delivers the order first and empties the cart only after the
// delivery succeeded.
func (r *Router) checkout(ctx context.Context, u domain.Update) error {
	if err := r.messenger.AnswerCallback(ctx, u.CallbackID, ""); err != nil {
		log.Warnf("⚠️ Failed to answer callback %s: %v", u.CallbackID, err)
	}

	var order domain.Order
	err := r.carts.Checkout(u.From.ID, func(cart domain.Cart) error {
		order = domain.Order{
			ID:       r.newID(),
			UserID:   u.From.ID,
			Username: u.From.Username,
			Summary:  r.pricer.Summarize(cart),
			PlacedAt: r.now().UTC(),
		}
		return r.notifier.Notify(ctx, order)
	})

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return r.messenger.Send(ctx, u.ChatID, domain.Reply{Text: render.EmptyCart})
	case err != nil:
		log.Errorf("❌ Checkout for user %d failed, cart kept: %v", u.From.ID, err)
		return r.messenger.Send(ctx, u.ChatID, domain.Reply{Text: render.OrderFailed})
	}

	if err := r.journal.SaveOrder(ctx, order); err != nil {
		log.Errorf("❌ Order %s delivered but not journaled: %v", order.ID, err)
	}

	return r.messenger.Send(ctx, u.ChatID, domain.Reply{Text: render.OrderSent})
}

func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
