package replies

import (
	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/random"
)

// AssistantReplies are the built-in AI assistant answers.
var AssistantReplies = []string{
	"I've analyzed your request and drafted a WhatsApp message for the product. It includes pricing, emojis and a clear call-to-action to drive engagement.",
	"Based on your inventory data, I recommend a promotional campaign for the low-stock items. That clears inventory while keeping margins intact.",
	"I can generate a marketing poster for these products. Want me to create one with your branding and product details?",
	"Customer engagement is up 23% this week! Most queries are about saree collections, so consider expanding that category.",
	"I've processed your voice note and updated the inventory: added 5 red silk sarees at ₹2,500 each. Stock levels are synced.",
}

// ChannelReplies are the built-in messaging-channel answers.
var ChannelReplies = []string{
	"✅ Stock available hai! Abhi store pe aajao.\n\n📍 Store timing:\n• Morning: 7 AM - 1 PM\n• Evening: 4 PM - 9 PM\n\n🎉 Aaj ka special offer:\nRice + Dal combo pe 10% discount!\n\nAur kuch chahiye? 🙏",
	"🎊 Festival Special Offers!\n\n• Cooking Oil - 15% OFF\n• Atta 10kg - ₹50 discount\n• Sugar 5kg - Buy 2 Get 1 FREE\n\nValid till Sunday!\n\nStore address: Shop No. 12, Main Road",
	"✨ Good news! Fresh stock aaya hai:\n\n✅ Premium Basmati Rice\n✅ Organic Pulses\n✅ Pure Desi Ghee\n\nStore pe visit karo ya call karo:\n📞 +91-9876543210",
}

// SuggestedPrompts are quick-start prompts offered on the assistant surface.
var SuggestedPrompts = []string{
	"Stock availability message",
	"Check inventory status",
	"Create promotion message",
	"Get reorder suggestions",
}

// DefaultCatalogs returns the built-in catalogs: the assistant prices each
// reply at 50-149 tokens, the channel does not price replies.
func DefaultCatalogs() map[model.Surface]Catalog {
	return map[model.Surface]Catalog{
		model.SurfaceAssistant: {Replies: AssistantReplies, Cost: RangeCost{Min: 50, Max: 149}},
		model.SurfaceChannel:   {Replies: ChannelReplies, Cost: NoCost{}},
	}
}

// Default builds a Library over DefaultCatalogs.
func Default(rnd random.Source) (*Library, error) {
	return New(rnd, DefaultCatalogs())
}
