package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a ledger event.
type EventType string

const (
	EventDeposit    EventType = "DEPOSIT"
	EventWithdrawal EventType = "WITHDRAWAL"
)

// Event is an append-only record of a completed deposit or withdrawal.
// Amount is a decimal integer string in the asset's native precision.
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	User   string    `json:"user"`
	Asset  Asset     `json:"asset"`
	Amount string    `json:"amount"`
	At     time.Time `json:"at"`
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(typ EventType, user string, asset Asset, amount string) *Event {
	return &Event{
		ID:     uuid.NewString(),
		Type:   typ,
		User:   user,
		Asset:  asset,
		Amount: amount,
		At:     time.Now().UTC(),
	}
}
