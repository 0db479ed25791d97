// Package model defines the core domain types for the dashboard core.
//
// Two kinds of state live here:
//
//   - Conversations: an append-only message log per UI surface plus a
//     typing indicator. Locally authored messages advance through a
//     forward-only delivery state machine (pending -> sent -> delivered ->
//     seen); counterpart replies arrive already seen.
//
//   - Metric snapshots: a mapping from metric name to an integer value in
//     that metric's natural unit. The authoritative snapshot is replaced
//     wholesale on each feed tick; the displayed snapshot converges toward
//     it over a fixed animation window.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Surface identifies one conversational view.
type Surface string

const (
	// SurfaceAssistant is the AI chat assistant.
	SurfaceAssistant Surface = "assistant"
	// SurfaceChannel is the messaging-channel (WhatsApp-style) simulator.
	SurfaceChannel Surface = "channel"
)

// ParseSurface maps a user-supplied name to a Surface.
func ParseSurface(s string) (Surface, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assistant", "ai", "chat":
		return SurfaceAssistant, true
	case "channel", "whatsapp", "wa":
		return SurfaceChannel, true
	}
	return "", false
}

// Origin records who produced a message.
type Origin string

const (
	OriginLocal       Origin = "local"
	OriginCounterpart Origin = "counterpart"
)

// DeliveryStatus is the delivery progression of a local message.
type DeliveryStatus int

const (
	StatusPending DeliveryStatus = iota
	StatusSent
	StatusDelivered
	StatusSeen
)

func (s DeliveryStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusSeen:
		return "seen"
	}
	return "unknown"
}

// MarshalText lets statuses render by name in JSON output.
func (s DeliveryStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *DeliveryStatus) UnmarshalText(b []byte) error {
	for st := StatusPending; st <= StatusSeen; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown delivery status %q", b)
}

// Next returns the single legal successor of s. Seen is terminal.
func (s DeliveryStatus) Next() (DeliveryStatus, bool) {
	if s >= StatusSeen {
		return s, false
	}
	return s + 1, true
}

// CanAdvanceTo reports whether moving from s to next is a legal
// transition: exactly one step forward.
func (s DeliveryStatus) CanAdvanceTo(next DeliveryStatus) bool {
	n, ok := s.Next()
	return ok && n == next
}

// Message is a single entry in a conversation log.
type Message struct {
	ID        string         `json:"id"`
	Seq       int64          `json:"seq"`
	Origin    Origin         `json:"origin"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Status    DeliveryStatus `json:"status"`
	Cost      *int           `json:"cost,omitempty"`
}

// ConversationState is an immutable copy of a conversation handed to
// observers. Version increases with every mutation.
type ConversationState struct {
	ID                string    `json:"id"`
	Surface           Surface   `json:"surface"`
	Messages          []Message `json:"messages"`
	CounterpartTyping bool      `json:"counterpart_typing"`
	Version           uint64    `json:"version"`
}

// Last returns the most recent message, if any.
func (s ConversationState) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Find returns the message with the given id.
func (s ConversationState) Find(id string) (Message, bool) {
	for _, m := range s.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Reply is one counterpart reply drawn from a response catalog.
type Reply struct {
	Content string
	Cost    *int
}

// Snapshot maps metric names to values in the metric's natural unit.
type Snapshot map[string]int64

// Clone returns an independent copy of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal reports whether s and other hold the same keys and values.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the metric names in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sale is one order recorded in the sales ledger.
type Sale struct {
	ID         int64     `json:"id"`
	Amount     int64     `json:"amount"`
	CustomerID string    `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UsageRecord is one entry in the simulated token usage ledger.
type UsageRecord struct {
	ID        int64     `json:"id"`
	Surface   Surface   `json:"surface"`
	Tokens    int64     `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

// Totals is the aggregate view the data store hands to the metrics feed.
type Totals struct {
	Revenue         int64 `json:"revenue"`
	OrdersToday     int64 `json:"orders_today"`
	ActiveCustomers int64 `json:"active_customers"`
	TokensUsed      int64 `json:"tokens_used"`
	LowStockItems   int64 `json:"low_stock_items"`
}

// StockStatus classifies an inventory row.
type StockStatus string

const (
	StockIn  StockStatus = "in-stock"
	StockLow StockStatus = "low-stock"
	StockOut StockStatus = "out-of-stock"
)

// StockStatusFor classifies a quantity against a low-stock threshold.
func StockStatusFor(qty, threshold int64) StockStatus {
	switch {
	case qty <= 0:
		return StockOut
	case qty <= threshold:
		return StockLow
	default:
		return StockIn
	}
}

// InventoryItem is a product row in the shop's inventory.
type InventoryItem struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	Stock        int64       `json:"stock"`
	Price        int64       `json:"price"`
	Unit         string      `json:"unit"`
	LowThreshold int64       `json:"low_threshold"`
	Status       StockStatus `json:"status"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
