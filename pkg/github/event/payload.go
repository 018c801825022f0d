package event

// Payload is the subset of the webhook body the pipeline reads.
type Payload struct {
	Action       string        `json:"action"`
	Issue        *Issue        `json:"issue,omitempty"`
	PullRequest  *PullRequest  `json:"pull_request,omitempty"`
	Comment      *Comment      `json:"comment,omitempty"`
	Discussion   *Discussion   `json:"discussion,omitempty"`
	Label        *Label        `json:"label,omitempty"`
	Repository   *Repository   `json:"repository,omitempty"`
	Installation *Installation `json:"installation,omitempty"`
}

type Issue struct {
	ID          int64                 `json:"id"`
	NodeID      string                `json:"node_id"`
	Number      int                   `json:"number"`
	Title       string                `json:"title"`
	Body        string                `json:"body"`
	PullRequest *IssuePullRequestLink `json:"pull_request,omitempty"`
}

// IssuePullRequestLink is present when the issue is a pull request.
type IssuePullRequestLink struct {
	URL     string `json:"url"`
	HTMLURL string `json:"html_url"`
}

type PullRequest struct {
	ID     int64  `json:"id"`
	NodeID string `json:"node_id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Comment covers issue, review and discussion comments.
type Comment struct {
	ID          int64  `json:"id"`
	NodeID      string `json:"node_id"`
	Body        string `json:"body"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	InReplyToID *int64 `json:"in_reply_to_id,omitempty"`
}

type Discussion struct {
	ID     int64  `json:"id"`
	NodeID string `json:"node_id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type Label struct {
	ID     int64  `json:"id"`
	NodeID string `json:"node_id"`
	Name   string `json:"name"`
}

type Repository struct {
	ID       int64  `json:"id"`
	NodeID   string `json:"node_id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    Owner  `json:"owner"`
}

type Owner struct {
	Login string `json:"login"`
}

type Installation struct {
	ID int64 `json:"id"`
}
