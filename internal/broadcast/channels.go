// Package broadcast pushes lightweight invalidation messages to connected
// dashboard subscribers. No payload data is pushed: subscribers refetch
// whatever client-side keys the channel covers. Delivery is at-most-once and
// best-effort; correctness is preserved by the subscribers' polling fallback.
package broadcast

import (
	"strings"

	"github.com/valter-silva-au/brainboard/internal/cache"
)

// Channel is a logical grouping of client-visible cache keys that are
// refreshed together when a server-side change lands.
type Channel string

const (
	ChannelTasks         Channel = "tasks"
	ChannelQueue         Channel = "queue"
	ChannelAgents        Channel = "agents"
	ChannelActivity      Channel = "activity"
	ChannelNotifications Channel = "notifications"
	ChannelIdeas         Channel = "ideas"
	ChannelKnowledge     Channel = "knowledge"
	ChannelDrafts        Channel = "drafts"
	ChannelBook          Channel = "book"
	ChannelSchedule      Channel = "schedule"
)

// InvalidateMessage is the wire message pushed to subscribers. It identifies
// the channel only; subscribers always refetch rather than receiving state.
type InvalidateMessage struct {
	Type    string  `json:"type"`
	Channel Channel `json:"channel"`
}

// NewInvalidateMessage builds the wire message for a channel.
func NewInvalidateMessage(ch Channel) InvalidateMessage {
	return InvalidateMessage{Type: "invalidate", Channel: ch}
}

// categoryChannels maps a server-side cache category to the channels its
// change affects. The structured store document fans out to every view that
// reads part of it.
var categoryChannels = map[cache.Category][]Channel{
	cache.CategoryStore: {
		ChannelTasks, ChannelQueue, ChannelAgents,
		ChannelActivity, ChannelNotifications,
	},
	cache.CategoryIdeas:     {ChannelIdeas, ChannelQueue},
	cache.CategoryKnowledge: {ChannelKnowledge},
	cache.CategoryDrafts:    {ChannelDrafts},
	cache.CategoryBook:      {ChannelBook},
	cache.CategorySchedule:  {ChannelSchedule},
	cache.CategoryRecurring: {ChannelQueue},
}

// ChannelsForCategory returns the channels affected by a category change.
func ChannelsForCategory(cat cache.Category) []Channel {
	return categoryChannels[cat]
}

// KeyRule describes which client-side cache keys a channel covers: a fixed
// list of exact keys plus prefixes matching per-id detail views.
type KeyRule struct {
	Keys     []string
	Prefixes []string
}

// Matches reports whether the rule covers the given client-side key.
func (r KeyRule) Matches(key string) bool {
	for _, k := range r.Keys {
		if key == k {
			return true
		}
	}
	for _, p := range r.Prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// channelKeys is the static mapping from logical channel to the client-side
// keys it refreshes.
var channelKeys = map[Channel]KeyRule{
	ChannelTasks:         {Keys: []string{"tasks"}, Prefixes: []string{"task:"}},
	ChannelQueue:         {Keys: []string{"queue", "queue-stats"}},
	ChannelAgents:        {Keys: []string{"agents"}, Prefixes: []string{"agent:"}},
	ChannelActivity:      {Keys: []string{"activity"}},
	ChannelNotifications: {Keys: []string{"notifications", "notification-count"}},
	ChannelIdeas:         {Keys: []string{"ideas"}, Prefixes: []string{"idea:"}},
	ChannelKnowledge:     {Keys: []string{"knowledge"}, Prefixes: []string{"knowledge:"}},
	ChannelDrafts:        {Keys: []string{"drafts"}, Prefixes: []string{"draft:"}},
	ChannelBook:          {Keys: []string{"book"}, Prefixes: []string{"chapter:"}},
	ChannelSchedule:      {Keys: []string{"schedule"}},
}

// KeysForChannel returns the key rule for a channel. Unknown channels cover
// nothing.
func KeysForChannel(ch Channel) KeyRule {
	return channelKeys[ch]
}
