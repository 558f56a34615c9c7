package message

// MessageType distinguishes how a feed entry is rendered
type MessageType string

const (
	TypeRegular MessageType = "regular"
	TypeGift    MessageType = "gift"
	TypeSystem  MessageType = "system"
)

// BadgeType classifies a badge for styling
type BadgeType string

const (
	BadgeLevel   BadgeType = "level"
	BadgeRank    BadgeType = "rank"
	BadgeSpecial BadgeType = "special"
)

// ChatMessage is the shape produced by external sources (bridge, platform clients)
type ChatMessage struct {
	Username    string `json:"username"`
	ChatContent string `json:"chatContent"`
	Timestamp   string `json:"timestamp"`
	Avatar      string `json:"avatar"`
}

// Badge is a purely descriptive decoration shown next to a username
type Badge struct {
	Icon  string    `json:"icon"`
	Text  string    `json:"text,omitempty"`
	Type  BadgeType `json:"type"`
	Color string    `json:"color,omitempty"`
}

// Metadata carries optional extras for gift and system entries
type Metadata struct {
	TxHash     string `json:"txHash,omitempty"`
	GiftName   string `json:"giftName,omitempty"`
	GiftCount  int    `json:"giftCount,omitempty"`
	CoinsTotal int    `json:"coinsTotal,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Handle     string `json:"handle,omitempty"`
}

// DisplayMessage is a single feed entry as exposed to the renderer
type DisplayMessage struct {
	ID          string      `json:"id"`
	User        string      `json:"user"`
	Message     string      `json:"message"`
	Avatar      string      `json:"avatar"`
	Timestamp   int64       `json:"timestamp"` // Unix milliseconds
	IsSystem    bool        `json:"isSystem"`
	Badges      []Badge     `json:"badges,omitempty"`
	MessageType MessageType `json:"messageType"`
	Metadata    *Metadata   `json:"metadata,omitempty"`
}

// Clone returns a deep copy so callers never share slices with the store
func (m DisplayMessage) Clone() DisplayMessage {
	if m.Badges != nil {
		badges := make([]Badge, len(m.Badges))
		copy(badges, m.Badges)
		m.Badges = badges
	}
	if m.Metadata != nil {
		md := *m.Metadata
		m.Metadata = &md
	}
	return m
}

// SystemNotice is a short-lived local warning, never part of the feed
type SystemNotice struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	IsSystem  bool   `json:"isSystem"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}
