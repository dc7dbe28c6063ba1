package model

import "time"

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// MessagePart 消息内容片段；目前只有 text 一种，未知类型在消费端忽略
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// ChatMessage 会话内的一轮消息。助手消息在流式期间逐段增长，
// Completed 置位后内容不再变化。
type ChatMessage struct {
	ID        string        `json:"id"`
	Role      ChatRole      `json:"role"`
	Parts     []MessagePart `json:"parts"`
	Completed bool          `json:"completed"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Text 拼接所有 text 片段
func (m *ChatMessage) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == "text" {
			out += p.Text
		}
	}
	return out
}
