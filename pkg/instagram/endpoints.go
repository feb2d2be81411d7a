package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram web pages and the GraphQL endpoint
	BaseURL = "https://www.instagram.com"

	// APIBaseURL hosts the private profile API
	APIBaseURL = "https://i.instagram.com"

	// ProfileEndpoint is the endpoint pattern for user profiles
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// GraphQLEndpoint accepts form-encoded persisted queries
	GraphQLEndpoint = "/graphql/query"

	// PostDetailQueryHash selects the post detail query including comments
	PostDetailQueryHash = "97b41c52301f77ce508f55e66d17620e"

	// WebAppID is sent as x-ig-app-id on profile lookups
	WebAppID = "936619743392459"

	// DefaultCommentPageSize is the number of comments requested per detail page
	DefaultCommentPageSize = 50

	// MaxCommentPageSize is the largest page the detail query honours
	MaxCommentPageSize = 50
)

// PostRef identifies one post by short code
type PostRef struct {
	Shortcode string
	URL       string
}

// NewPostRef builds the canonical reference for a short code
func NewPostRef(shortcode string) PostRef {
	return PostRef{Shortcode: shortcode, URL: GetPostURL(shortcode)}
}

// ParsePostRef normalizes a post link. Links to a post's likers or comment
// pages are rejected, as are links without a short code.
func ParsePostRef(href string) (PostRef, bool) {
	if href == "" || strings.Contains(href, "liked_by") || strings.Contains(href, "comments") {
		return PostRef{}, false
	}
	i := strings.LastIndex(href, "/p/")
	if i < 0 {
		return PostRef{}, false
	}
	code := href[i+len("/p/"):]
	if j := strings.IndexAny(code, "/?#"); j >= 0 {
		code = code[:j]
	}
	if code == "" {
		return PostRef{}, false
	}
	return NewPostRef(code), true
}

// GetTagURL returns the explore page for a hashtag
func GetTagURL(baseURL, topic string) string {
	return fmt.Sprintf("%s/explore/tags/%s/", strings.TrimRight(baseURL, "/"), url.PathEscape(topic))
}

// GetProfileURL constructs the URL for fetching a user's profile
func GetProfileURL(apiBaseURL, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(apiBaseURL, "/"), ProfileEndpoint, params.Encode())
}

// GetGraphQLURL returns the GraphQL query endpoint under baseURL
func GetGraphQLURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + GraphQLEndpoint
}

type detailVariables struct {
	Shortcode string  `json:"shortcode"`
	First     int     `json:"first"`
	After     *string `json:"after"`
}

// GetPostDetailForm builds the form body for one page of a post's comments.
// An empty after requests the first page.
func GetPostDetailForm(queryHash, shortcode string, limit int, after string) url.Values {
	if limit <= 0 {
		limit = DefaultCommentPageSize
	} else if limit > MaxCommentPageSize {
		limit = MaxCommentPageSize
	}

	vars := detailVariables{Shortcode: shortcode, First: limit}
	if after != "" {
		vars.After = &after
	}
	// marshalling a plain struct of strings and ints cannot fail
	encoded, _ := json.Marshal(vars)

	form := url.Values{}
	form.Set("query_hash", queryHash)
	form.Set("variables", string(encoded))
	return form
}

// GetPostURL constructs the URL for a specific post
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// GetUserProfileURL constructs the public profile URL for a user
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @ and surrounding whitespace or slashes
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
