package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/claimtoken/ledger/internal/platform/db"
	"github.com/claimtoken/ledger/internal/platform/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// EventType names a ledger event.
type EventType string

const (
	EventMintRequested  EventType = "mint.requested"
	EventMintCancelled  EventType = "mint.cancelled"
	EventMintCompleted  EventType = "mint.completed"
	EventBurnRequested  EventType = "burn.requested"
	EventBurnCancelled  EventType = "burn.cancelled"
	EventBurnCompleted  EventType = "burn.completed"
	EventConfigChanged  EventType = "config.changed"
	EventPaused         EventType = "paused"
	EventUnpaused       EventType = "unpaused"
	EventEmergencySweep EventType = "emergency.withdraw"
)

// Event is one entry in the append-only event journal.
type Event struct {
	Seq        uint64        `json:"seq"`
	Type       EventType     `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Request    *RequestEvent `json:"request,omitempty"`
	Config     *ConfigEvent  `json:"config,omitempty"`
}

// RequestEvent carries the per-request payload the lifecycle operations
// emit.
type RequestEvent struct {
	Kind           Kind           `json:"kind"`
	ID             uint64         `json:"id"`
	Provider       common.Address `json:"provider,omitempty"`
	Token          common.Address `json:"token,omitempty"`
	Amount         uint64         `json:"amount,omitempty"`
	MinExpected    uint64         `json:"min_expected,omitempty"`
	IdempotencyKey common.Hash    `json:"idempotency_key,omitempty"`
	SettledAmount  uint64         `json:"settled_amount,omitempty"`
}

// ConfigEvent carries the payload of configuration and administrative
// events.
type ConfigEvent struct {
	Field   string         `json:"field,omitempty"`
	Address common.Address `json:"address,omitempty"`
	Enabled bool           `json:"enabled,omitempty"`
	Amount  uint64         `json:"amount,omitempty"`
}

const eventStorageKey = "ledger/events"

// appendEvent writes the next journal entry and advances the event counter
// on the in-memory state. The caller persists the state afterwards.
func appendEvent(ctx context.Context, dbConn *db.DB, st *State, event *Event) error {
	event.Seq = st.EventCount
	event.OccurredAt = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal event")
	}

	key := fmt.Sprintf("%s/%012d", eventStorageKey, event.Seq)
	if err := dbConn.Put(ctx, key, data); err != nil {
		return errors.Wrap(err, "Failed to store event")
	}

	st.EventCount++

	logger.Info(ctx, "Ledger event",
		zap.Uint64("seq", event.Seq),
		zap.String("type", string(event.Type)))
	return nil
}

// ListEvents returns the journal entries in sequence order.
func ListEvents(ctx context.Context, dbConn *db.DB) ([]*Event, error) {
	keys, err := dbConn.List(ctx, eventStorageKey)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list events")
	}

	sort.Strings(keys)

	events := make([]*Event, 0, len(keys))
	for _, key := range keys {
		b, err := dbConn.Fetch(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to fetch event")
		}

		event := Event{}
		if err := json.Unmarshal(b, &event); err != nil {
			return nil, errors.Wrap(err, "Failed to unmarshal event")
		}

		events = append(events, &event)
	}

	return events, nil
}
