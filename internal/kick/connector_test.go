package kick

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	kickchat "github.com/johanvandegriff/kick-chat-wrapper"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john/livefeed/internal/message"
)

func TestResolverResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels/xqc":
			w.Write([]byte(`{"id":1,"slug":"xqc","chatroom":{"id":668}}`))
		case "/channels/nochat":
			w.Write([]byte(`{"id":2,"slug":"nochat","chatroom":{}}`))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewResolver(srv.URL)
	ctx := context.Background()

	id, slug, err := r.Resolve(ctx, "xqc")
	require.NoError(t, err)
	assert.Equal(t, 668, id)
	assert.Equal(t, "xqc", slug)

	_, _, err = r.Resolve(ctx, "nochat")
	assert.Error(t, err)

	_, _, err = r.Resolve(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestResolveAllSkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/channels/good" {
			w.Write([]byte(`{"id":1,"slug":"good","chatroom":{"id":10}}`))
			return
		}
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New([]ChannelConfig{
		{Slug: "preset", ChatroomID: 99},
		{Slug: "good"},
		{Slug: "bad"},
	}, "https://kick.example/avatar.png", NewResolver(srv.URL), zerolog.Nop())

	c.resolveAll(context.Background())
	assert.Equal(t, map[int]string{99: "preset", 10: "good"}, c.idToSlug)
}

func TestConvertMessage(t *testing.T) {
	c := New(nil, "https://kick.example/avatar.png", nil, zerolog.Nop())
	c.idToSlug[668] = "xqc"

	var msg kickchat.ChatMessage
	msg.ChatroomID = 668
	msg.Content = "Amazing stream!"
	msg.Sender.ID = 777
	msg.Sender.Username = "Gaming_Pro"
	msg.Sender.Identity.Badges = []kickchat.Badge{{Type: "subscriber", Text: "Subscriber"}}

	pm, ok := c.convertMessage(msg)
	require.True(t, ok)
	assert.Equal(t, Platform, pm.Platform)
	assert.Equal(t, "xqc", pm.Channel)
	assert.Equal(t, "777", pm.UserID)
	assert.Equal(t, "Gaming_Pro", pm.Username)
	assert.Equal(t, "Amazing stream!", pm.Content)
	assert.Equal(t, "https://kick.example/avatar.png", pm.Avatar)
	assert.Equal(t, []message.Badge{{Icon: "❤️", Text: "Subscriber", Type: message.BadgeRank}}, pm.Badges)

	msg.ChatroomID = 1
	_, ok = c.convertMessage(msg)
	assert.False(t, ok, "unknown chatroom")
}

func TestFormatBadges(t *testing.T) {
	assert.Nil(t, formatBadges(nil))

	got := formatBadges([]kickchat.Badge{
		{Type: "moderator"},
		{Type: "sub_gifter", Text: "25"},
	})
	assert.Equal(t, []message.Badge{
		{Icon: "🎯", Text: "moderator", Type: message.BadgeSpecial},
		{Icon: "💎", Text: "25", Type: message.BadgeLevel},
	}, got)
}
