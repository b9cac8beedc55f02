// Package events contains the publisher used when no event transport is configured.
package events

import (
	"context"

	interfaces "github.com/sheikh-saqib/customer-ledger/internal/interfaces"
)

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, interfaces.Event) error { return nil }

func (Nop) Close() error { return nil }

var _ interfaces.EventPublisher = Nop{}
