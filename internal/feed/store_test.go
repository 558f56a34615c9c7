package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john/livefeed/internal/message"
)

type recordingRenderer struct {
	scrolled []message.DisplayMessage
	likes    []LikeState
}

func (r *recordingRenderer) ScrollToBottom(last message.DisplayMessage) {
	r.scrolled = append(r.scrolled, last)
}

func (r *recordingRenderer) LikeTriggered(state LikeState) {
	r.likes = append(r.likes, state)
}

func newTestStore(capacity int) (*Store, *clock.Mock, *recordingRenderer) {
	clk := clock.NewMock()
	clk.Set(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	r := &recordingRenderer{}
	s := New(Options{
		Capacity: capacity,
		Viewer:   Identity{Name: "viewer", Avatar: "https://example.com/me.png"},
		Clock:    clk,
		Renderer: r,
	})
	return s, clk, r
}

func TestAddCommentUsesViewerIdentity(t *testing.T) {
	s, clk, r := newTestStore(0)

	got := s.AddComment("hello", CommentOptions{})
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "viewer", got.User)
	assert.Equal(t, "https://example.com/me.png", got.Avatar)
	assert.Equal(t, "hello", got.Message)
	assert.Equal(t, message.TypeRegular, got.MessageType)
	assert.Equal(t, clk.Now().UnixMilli(), got.Timestamp)

	require.Len(t, r.scrolled, 1)
	assert.Equal(t, got, r.scrolled[0])
}

func TestAddCommentOverrides(t *testing.T) {
	s, _, _ := newTestStore(0)

	got := s.AddComment("hi", CommentOptions{User: "A", Avatar: "u1"})
	assert.Equal(t, "A", got.User)
	assert.Equal(t, "u1", got.Avatar)

	sys := s.AddComment("welcome", CommentOptions{IsSystem: true})
	assert.True(t, sys.IsSystem)
	assert.Equal(t, message.TypeSystem, sys.MessageType)

	gift := s.AddComment("", CommentOptions{
		Type:     message.TypeGift,
		Metadata: &message.Metadata{GiftName: "Rose", GiftCount: 3, Icon: "🌹"},
	})
	assert.Equal(t, message.TypeGift, gift.MessageType)
	assert.Equal(t, 3, gift.Metadata.GiftCount)
}

func TestAppendKeepsInsertionOrderAndUniqueIDs(t *testing.T) {
	s, _, _ := newTestStore(0)

	for i := 0; i < 10; i++ {
		s.AddComment(fmt.Sprintf("m%d", i), CommentOptions{})
	}

	msgs := s.Messages()
	require.Len(t, msgs, 10)
	seen := make(map[string]bool)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Message)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestAppendEvictsOldestBeyondCapacity(t *testing.T) {
	s, _, _ := newTestStore(3)

	for i := 0; i < 5; i++ {
		s.AddComment(fmt.Sprintf("m%d", i), CommentOptions{})
	}

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "m2", msgs[0].Message)
	assert.Equal(t, "m4", msgs[2].Message)
}

func TestStoreOwnsItsEntries(t *testing.T) {
	s, _, _ := newTestStore(0)

	badges := []message.Badge{{Icon: "💎", Text: "19", Type: message.BadgeLevel}}
	s.Append(message.DisplayMessage{User: "a", Message: "x", Badges: badges})
	badges[0].Text = "changed"

	msgs := s.Messages()
	msgs[0].Message = "mutated"
	msgs[0].Badges[0].Icon = "mutated"

	fresh := s.Messages()
	assert.Equal(t, "x", fresh[0].Message)
	assert.Equal(t, "19", fresh[0].Badges[0].Text)
	assert.Equal(t, "💎", fresh[0].Badges[0].Icon)
}

func TestEarlierSnapshotUnaffectedByAppend(t *testing.T) {
	s, _, _ := newTestStore(2)
	s.AddComment("a", CommentOptions{})
	s.AddComment("b", CommentOptions{})

	before := s.Snapshot()
	s.AddComment("c", CommentOptions{})

	require.Len(t, before.Messages, 2)
	assert.Equal(t, "a", before.Messages[0].Message)
	assert.Equal(t, "b", before.Messages[1].Message)
}

func TestTriggerLike(t *testing.T) {
	s, clk, r := newTestStore(0)

	assert.Equal(t, LikeState{}, s.Likes())

	state := s.TriggerLike()
	assert.Equal(t, 1, state.Count)
	assert.Equal(t, clk.Now().UnixMilli(), state.LastLikeTimestamp)

	clk.Add(time.Second)
	state = s.TriggerLike()
	assert.Equal(t, 2, state.Count)
	assert.Equal(t, clk.Now().UnixMilli(), state.LastLikeTimestamp)

	require.Len(t, r.likes, 2)
	assert.Equal(t, 2, r.likes[1].Count)
	assert.Equal(t, 0, state.Burst, "TriggerLike alone does not count toward the burst")
}

func TestTapBurstMultiplier(t *testing.T) {
	s, clk, _ := newTestStore(0)

	var state LikeState
	for i := 1; i <= 4; i++ {
		state = s.Tap()
		assert.Equal(t, i, state.Burst)
		assert.False(t, state.ShowMultiplier)
		clk.Add(500 * time.Millisecond)
	}

	state = s.Tap()
	assert.Equal(t, 5, state.Burst)
	assert.True(t, state.ShowMultiplier)
	assert.Equal(t, 5, state.Count)

	// The first tap leaves the 5s window 5s after it happened
	clk.Add(3 * time.Second)
	state = s.Likes()
	assert.Equal(t, 4, state.Burst)
	assert.False(t, state.ShowMultiplier)

	clk.Add(10 * time.Second)
	state = s.Tap()
	assert.Equal(t, 1, state.Burst)
	assert.Equal(t, 6, state.Count)
}
