package conversation

import (
	"fmt"
	"time"

	"github.com/vyaapaar/dashcore/pkg/model"
)

// Profile configures the delivery state machine for one surface. The two
// built-in profiles differ only in whether a reply marks the answered
// message seen.
type Profile struct {
	Surface model.Surface

	// SentAfter is the delay from submission to pending -> sent.
	SentAfter time.Duration
	// DeliveredAfter is the further delay from sent to delivered.
	DeliveredAfter time.Duration
	// ReplyAfter is the delay before a counterpart reply lands, measured
	// from submission, or from the previous reply when replies queue up.
	ReplyAfter time.Duration
	// ReplyJitter adds a uniform [0, ReplyJitter) offset to ReplyAfter.
	ReplyJitter time.Duration
	// MarkSeenOnReply advances the answered message delivered -> seen
	// when its reply arrives.
	MarkSeenOnReply bool
}

// AssistantProfile drives the AI chat. It has no seen step.
var AssistantProfile = Profile{
	Surface:        model.SurfaceAssistant,
	SentAfter:      time.Second,
	DeliveredAfter: time.Second,
	ReplyAfter:     2500 * time.Millisecond,
	ReplyJitter:    500 * time.Millisecond,
}

// ChannelProfile drives the messaging-channel simulator. A reply marks
// the customer's message read.
var ChannelProfile = Profile{
	Surface:         model.SurfaceChannel,
	SentAfter:       time.Second,
	DeliveredAfter:  time.Second,
	ReplyAfter:      3 * time.Second,
	MarkSeenOnReply: true,
}

// ProfileFor returns the built-in profile for surface.
func ProfileFor(surface model.Surface) (Profile, bool) {
	switch surface {
	case model.SurfaceAssistant:
		return AssistantProfile, true
	case model.SurfaceChannel:
		return ChannelProfile, true
	}
	return Profile{}, false
}

// Validate checks that the reply always lands after delivery completes.
func (p Profile) Validate() error {
	if p.Surface == "" {
		return &model.ConfigurationError{Component: "conversation", Reason: "profile has no surface"}
	}
	if p.SentAfter < 0 || p.DeliveredAfter < 0 || p.ReplyJitter < 0 {
		return &model.ConfigurationError{Component: "conversation", Reason: "negative delay in profile"}
	}
	if p.ReplyAfter <= p.SentAfter+p.DeliveredAfter {
		return &model.ConfigurationError{
			Component: "conversation",
			Reason: fmt.Sprintf("reply delay %s must exceed delivery sequence %s",
				p.ReplyAfter, p.SentAfter+p.DeliveredAfter),
		}
	}
	return nil
}

// DefaultHistory returns the demo exchange a surface opens with, stamped
// relative to now.
func DefaultHistory(surface model.Surface, now time.Time) []model.Message {
	ago := func(min int) time.Time { return now.Add(-time.Duration(min) * time.Minute) }
	cost := func(n int) *int { return &n }
	switch surface {
	case model.SurfaceAssistant:
		return []model.Message{
			{ID: "seed-1", Origin: model.OriginCounterpart, CreatedAt: ago(5), Status: model.StatusSeen,
				Content: "Namaste! 🙏 I'm your VyaapaarAI assistant. I can help with inventory, stock updates, and promotional messages for your kirana store. How can I help?"},
			{ID: "seed-2", Origin: model.OriginLocal, CreatedAt: ago(4), Status: model.StatusDelivered,
				Content: "Can you create a WhatsApp message for our new stock arrival?"},
			{ID: "seed-3", Origin: model.OriginCounterpart, CreatedAt: ago(3), Status: model.StatusSeen, Cost: cost(87),
				Content: "✨ *नमस्ते!* ✨\n\nFresh stock just arrived! 🛒\n\n💫 *New Arrivals*\n✅ Premium rice & wheat\n✅ Fresh fruits & vegetables\n✅ Daily essentials\n\n📱 Check availability on WhatsApp!\n*Visit us today!*"},
		}
	case model.SurfaceChannel:
		return []model.Message{
			{ID: "seed-1", Origin: model.OriginCounterpart, CreatedAt: ago(10), Status: model.StatusSeen,
				Content: "Namaste! Basmati rice available hai kya? 5kg bag chahiye."},
			{ID: "seed-2", Origin: model.OriginLocal, CreatedAt: ago(9), Status: model.StatusSeen,
				Content: "🙏 Namaste! Haan ji, Basmati rice available hai!\n\n📦 Stock Details:\n• 5kg bag - ₹350\n• Fresh stock aaya hai\n\n✨ Special Offer:\nAaj 10% off on 10kg pack - ₹630 only!"},
			{ID: "seed-3", Origin: model.OriginCounterpart, CreatedAt: ago(8), Status: model.StatusSeen,
				Content: "Aur dal bhi hai? Toor dal?"},
			{ID: "seed-4", Origin: model.OriginLocal, CreatedAt: ago(7), Status: model.StatusSeen,
				Content: "✅ Toor dal available hai!\n\n🟡 Toor Dal 1kg - ₹120\n🟢 Moong Dal 1kg - ₹110\n🔴 Masoor Dal 1kg - ₹95\n\n🎉 Combo: Rice 5kg + Toor Dal 1kg = ₹450"},
		}
	}
	return nil
}
