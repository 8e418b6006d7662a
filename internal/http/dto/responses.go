package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type MembersResponse struct {
	WorkspaceID string   `json:"workspace_id"`
	Members     []string `json:"members"`
}
