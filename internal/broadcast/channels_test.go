package broadcast

import (
	"reflect"
	"testing"

	"github.com/valter-silva-au/brainboard/internal/cache"
)

func TestChannelsForCategory(t *testing.T) {
	tests := []struct {
		cat  cache.Category
		want []Channel
	}{
		{cache.CategoryStore, []Channel{ChannelTasks, ChannelQueue, ChannelAgents, ChannelActivity, ChannelNotifications}},
		{cache.CategoryIdeas, []Channel{ChannelIdeas, ChannelQueue}},
		{cache.CategoryKnowledge, []Channel{ChannelKnowledge}},
		{cache.CategoryDrafts, []Channel{ChannelDrafts}},
		{cache.CategoryBook, []Channel{ChannelBook}},
		{cache.CategorySchedule, []Channel{ChannelSchedule}},
		{cache.CategoryRecurring, []Channel{ChannelQueue}},
	}
	for _, tt := range tests {
		got := ChannelsForCategory(tt.cat)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ChannelsForCategory(%s) = %v, want %v", tt.cat, got, tt.want)
		}
	}
}

func TestChannelsForCategory_Unknown(t *testing.T) {
	if got := ChannelsForCategory("mystery"); got != nil {
		t.Errorf("unknown category should map to nothing, got %v", got)
	}
}

func TestEveryCategoryHasChannels(t *testing.T) {
	for _, cat := range cache.AllCategories {
		if len(ChannelsForCategory(cat)) == 0 {
			t.Errorf("category %s maps to no channels", cat)
		}
	}
}

func TestKeyRule_Matches(t *testing.T) {
	rule := KeyRule{Keys: []string{"tasks"}, Prefixes: []string{"task:"}}

	tests := []struct {
		key  string
		want bool
	}{
		{"tasks", true},
		{"task:abc-123", true},
		{"task:", true},
		{"taskseverywhere", false},
		{"agents", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := rule.Matches(tt.key); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestKeysForChannel(t *testing.T) {
	rule := KeysForChannel(ChannelNotifications)
	if !rule.Matches("notifications") || !rule.Matches("notification-count") {
		t.Errorf("notifications rule incomplete: %+v", rule)
	}

	unknown := KeysForChannel("mystery")
	if unknown.Matches("anything") {
		t.Error("unknown channel must cover nothing")
	}
}

func TestNewInvalidateMessage(t *testing.T) {
	msg := NewInvalidateMessage(ChannelIdeas)
	if msg.Type != "invalidate" || msg.Channel != ChannelIdeas {
		t.Errorf("unexpected message %+v", msg)
	}
}
