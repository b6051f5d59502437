package checklist

import "errors"

// ErrUnknownSessionType is returned for any session type outside the four
// SASQART cadences.
var ErrUnknownSessionType = errors.New("unknown session type")

type SessionType string

const (
	Daily     SessionType = "daily"
	Monthly   SessionType = "monthly"
	Quarterly SessionType = "quarterly"
	Annual    SessionType = "annual"
)

// Item is one inspection or measurement point in the SASQART schedule.
// Tolerance and Action are documented thresholds, kept as display text.
type Item struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Tolerance   string `json:"tolerance"`
	Action      string `json:"action"`
}

// Types returns the four session types in cadence order.
func Types() []SessionType {
	return []SessionType{Daily, Monthly, Quarterly, Annual}
}

// Valid reports whether t is one of the four recognized session types.
func Valid(t SessionType) bool {
	switch t {
	case Daily, Monthly, Quarterly, Annual:
		return true
	}
	return false
}

// ItemsFor returns the checklist for a session type in canonical order.
// The schedule is compiled reference data; callers must treat the returned
// slice as read-only.
func ItemsFor(t SessionType) ([]Item, error) {
	items, ok := schedule[t]
	if !ok {
		return nil, ErrUnknownSessionType
	}
	return items, nil
}

// Lookup returns the item definition for (sessionType, itemID).
func Lookup(t SessionType, id string) (Item, bool) {
	items, ok := schedule[t]
	if !ok {
		return Item{}, false
	}
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
