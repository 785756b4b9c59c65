package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type Action string

const (
	ActionView     Action = "view"
	ActionAdd      Action = "add"
	ActionCheckout Action = "checkout"
)

const (
	payloadSeparator = "_"
	// MaxPayloadBytes is the Telegram callback_data limit.
	MaxPayloadBytes = 64
)

// SelectionReference points at a product position inside a specific version
// of a category. The category is named by its index in the catalog order;
// Version ties that index to the category's name and content.
type SelectionReference struct {
	Action   Action
	Version  string
	Category int
	Position int
}

// Encode renders the reference as action_version_category_position.
func (r SelectionReference) Encode() (string, error) {
	if r.Action != ActionView && r.Action != ActionAdd {
		return "", fmt.Errorf("%w: action %q", ErrInvalidPayload, r.Action)
	}
	if r.Version == "" || strings.Contains(r.Version, payloadSeparator) {
		return "", fmt.Errorf("%w: version %q", ErrInvalidPayload, r.Version)
	}
	if r.Category < 0 || r.Position < 0 {
		return "", fmt.Errorf("%w: category %d position %d", ErrInvalidPayload, r.Category, r.Position)
	}

	payload := strings.Join([]string{
		string(r.Action),
		r.Version,
		strconv.Itoa(r.Category),
		strconv.Itoa(r.Position),
	}, payloadSeparator)

	if len(payload) > MaxPayloadBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(payload))
	}
	return payload, nil
}

// ParseSelection decodes a payload produced by Encode.
func ParseSelection(payload string) (SelectionReference, error) {
	parts := strings.Split(payload, payloadSeparator)
	if len(parts) != 4 {
		return SelectionReference{}, fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}

	action := Action(parts[0])
	if action != ActionView && action != ActionAdd {
		return SelectionReference{}, fmt.Errorf("%w: action %q", ErrInvalidPayload, parts[0])
	}
	if parts[1] == "" {
		return SelectionReference{}, fmt.Errorf("%w: empty version", ErrInvalidPayload)
	}

	category, err := strconv.Atoi(parts[2])
	if err != nil || category < 0 {
		return SelectionReference{}, fmt.Errorf("%w: category %q", ErrInvalidPayload, parts[2])
	}

	position, err := strconv.Atoi(parts[3])
	if err != nil || position < 0 {
		return SelectionReference{}, fmt.Errorf("%w: position %q", ErrInvalidPayload, parts[3])
	}

	return SelectionReference{
		Action:   action,
		Version:  parts[1],
		Category: category,
		Position: position,
	}, nil
}
