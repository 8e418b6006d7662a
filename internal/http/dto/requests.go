package dto

type TypingRequest struct {
	WorkspaceID string `json:"workspace_id"`
	ChannelID   string `json:"channel_id"`
	IsTyping    bool   `json:"is_typing"`
}
