package mcp

// IssueInfo summarizes one newsletter issue.
type IssueInfo struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	File   string `json:"file"`
}

// ListIssuesInput is the input for the list_issues MCP tool.
type ListIssuesInput struct{}

// ListIssuesOutput is the output for the list_issues MCP tool.
type ListIssuesOutput struct {
	Issues []IssueInfo `json:"issues" jsonschema:"Issues, newest file name first"`
	Count  int         `json:"count"`
}

// ReadIssueInput is the input for the read_issue MCP tool.
type ReadIssueInput struct {
	Number int `json:"number" jsonschema:"Issue number, as shown by list_issues"`
}

// IssueOutput is the output for the read_issue and latest_issue MCP tools.
type IssueOutput struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Content string `json:"content" jsonschema:"Raw markdown of the issue"`
}

// LatestIssueInput is the input for the latest_issue MCP tool.
type LatestIssueInput struct{}

// SendMessageInput is the input for the send_message MCP tool.
type SendMessageInput struct {
	Content string `json:"content" jsonschema:"Message text for the founder"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"Max seconds to wait for a reply. Default 30, max 300. 0 uses the default"`
}

// ReplyInfo is a founder reply.
type ReplyInfo struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SendMessageOutput is the output for the send_message MCP tool.
type SendMessageOutput struct {
	Status        string     `json:"status" jsonschema:"Result: reply_received or no_reply"`
	MessageID     string     `json:"message_id" jsonschema:"ID of the sent message"`
	Reply         *ReplyInfo `json:"reply,omitempty" jsonschema:"The reply if one arrived"`
	WaitedSeconds int        `json:"waited_seconds"`
}

// CheckInboxInput is the input for the check_inbox MCP tool.
type CheckInboxInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max threads to return, most recent last. Default 50"`
}

// ThreadInfo is one sent message and the replies to it.
type ThreadInfo struct {
	MessageID string      `json:"message_id"`
	Content   string      `json:"content"`
	Timestamp string      `json:"timestamp,omitempty"`
	Replies   []ReplyInfo `json:"replies"`
}

// CheckInboxOutput is the output for the check_inbox MCP tool.
type CheckInboxOutput struct {
	Status  string       `json:"status" jsonschema:"Result: messages or empty"`
	Threads []ThreadInfo `json:"threads"`
}
