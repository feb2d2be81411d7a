package instagram

import (
	"encoding/json"
	"errors"
)

// PostDetailResponse is the envelope of the post detail query
type PostDetailResponse struct {
	Data struct {
		ShortcodeMedia *ShortcodeMedia `json:"shortcode_media"`
	} `json:"data"`
	Status string `json:"status"`
}

// Validate rejects envelopes without a media document
func (r *PostDetailResponse) Validate() error {
	if r.Data.ShortcodeMedia == nil {
		return errors.New("response has no data.shortcode_media")
	}
	return nil
}

// ShortcodeMedia is one post with its first page(s) of comments.
// Either comment connection may be absent.
type ShortcodeMedia struct {
	ID                       string             `json:"id"`
	Shortcode                string             `json:"shortcode"`
	EdgeMediaToParentComment *CommentConnection `json:"edge_media_to_parent_comment,omitempty"`
	EdgeMediaToComment       *CommentConnection `json:"edge_media_to_comment,omitempty"`

	// threaded is set when the decoded document carries the threaded key,
	// even with a null value
	threaded bool
}

// UnmarshalJSON decodes the media and remembers whether the threaded
// comment key was present
func (m *ShortcodeMedia) UnmarshalJSON(data []byte) error {
	type plain ShortcodeMedia
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}
	_, m.threaded = keys["edge_media_to_parent_comment"]
	return nil
}

// Comments returns the threaded connection when present, else the flat one.
// A threaded key decoded as null still wins: the flat one is never used then.
func (m *ShortcodeMedia) Comments() *CommentConnection {
	if m == nil {
		return nil
	}
	if m.EdgeMediaToParentComment != nil || m.threaded {
		return m.EdgeMediaToParentComment
	}
	return m.EdgeMediaToComment
}

// CommentConnection is a page of comments
type CommentConnection struct {
	Count    int           `json:"count"`
	PageInfo PageInfo      `json:"page_info"`
	Edges    []CommentEdge `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// CommentEdge wraps a single comment node
type CommentEdge struct {
	Node CommentNode `json:"node"`
}

// CommentNode is one comment
type CommentNode struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Owner Owner  `json:"owner"`
}

// Owner is the author of a comment
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ProfileResponse is the envelope of the profile lookup
type ProfileResponse struct {
	Data struct {
		User *User `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

// Validate rejects envelopes without a user object
func (r *ProfileResponse) Validate() error {
	if r.Data.User == nil {
		return errors.New("response has no data.user")
	}
	return nil
}

// User represents an Instagram user profile
type User struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	FullName            string `json:"full_name"`
	Biography           string `json:"biography"`
	ExternalURL         string `json:"external_url"`
	IsPrivate           bool   `json:"is_private"`
	IsBusinessAccount   bool   `json:"is_business_account"`
	BusinessEmail       string `json:"business_email"`
	BusinessPhoneNumber string `json:"business_phone_number"`
	EdgeFollowedBy      struct {
		Count int `json:"count"`
	} `json:"edge_followed_by"`
}
