package instagram

import (
	"context"
	"net/http"

	"igharvest/pkg/fetch"
	"igharvest/pkg/logger"
	"igharvest/pkg/session"
)

// Fetcher performs one retried API call. *fetch.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req *fetch.Request, creds session.CredentialBag, target interface{}) error
}

// ClientConfig holds endpoint and pagination settings
type ClientConfig struct {
	BaseURL    string
	APIBaseURL string
	AppID      string
	QueryHash  string
	// PageSize is the number of comments per detail page
	PageSize int
	// MaxPages bounds how many comment pages are followed per post
	MaxPages int
}

// DefaultClientConfig returns the production endpoints and first-page-only comments
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    BaseURL,
		APIBaseURL: APIBaseURL,
		AppID:      WebAppID,
		QueryHash:  PostDetailQueryHash,
		PageSize:   DefaultCommentPageSize,
		MaxPages:   1,
	}
}

// Client talks to the post detail and profile endpoints
type Client struct {
	fetcher Fetcher
	config  ClientConfig
	logger  logger.Logger
}

// NewClient creates a new Instagram API client
func NewClient(f Fetcher, cfg ClientConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	defaults := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaults.APIBaseURL
	}
	if cfg.AppID == "" {
		cfg.AppID = defaults.AppID
	}
	if cfg.QueryHash == "" {
		cfg.QueryHash = defaults.QueryHash
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}

	return &Client{fetcher: f, config: cfg, logger: log}
}

// FetchPostDetail fetches a post and up to MaxPages pages of its comments.
// Failure on the first page is returned; failure on a later page keeps what
// was already collected.
func (c *Client) FetchPostDetail(ctx context.Context, ref PostRef, creds session.CredentialBag) (*ShortcodeMedia, error) {
	c.logger.DebugWithFields("fetching post detail", map[string]interface{}{
		"shortcode": ref.Shortcode,
	})

	media, err := c.fetchDetailPage(ctx, ref.Shortcode, "", creds)
	if err != nil {
		return nil, err
	}

	conn := media.Comments()
	for page := 2; page <= c.config.MaxPages && conn != nil; page++ {
		if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == "" {
			break
		}

		next, err := c.fetchDetailPage(ctx, ref.Shortcode, conn.PageInfo.EndCursor, creds)
		if err != nil {
			c.logger.WithError(err).WarnWithFields("stopping comment pagination", map[string]interface{}{
				"shortcode": ref.Shortcode,
				"page":      page,
			})
			break
		}
		nextConn := next.Comments()
		if nextConn == nil {
			break
		}
		conn.Edges = append(conn.Edges, nextConn.Edges...)
		conn.PageInfo = nextConn.PageInfo
	}

	c.logger.DebugWithFields("successfully fetched post detail", map[string]interface{}{
		"shortcode": ref.Shortcode,
		"comments":  commentCount(conn),
	})
	return media, nil
}

func (c *Client) fetchDetailPage(ctx context.Context, shortcode, after string, creds session.CredentialBag) (*ShortcodeMedia, error) {
	req := &fetch.Request{
		Op:     "detail",
		Key:    shortcode,
		Method: http.MethodPost,
		URL:    GetGraphQLURL(c.config.BaseURL),
		Form:   GetPostDetailForm(c.config.QueryHash, shortcode, c.config.PageSize, after),
		Header: map[string]string{
			"Referer": GetPostURL(shortcode),
		},
	}

	var response PostDetailResponse
	if err := c.fetcher.Fetch(ctx, req, creds, &response); err != nil {
		return nil, err
	}
	return response.Data.ShortcodeMedia, nil
}

// FetchProfile fetches the public profile of username
func (c *Client) FetchProfile(ctx context.Context, username string, creds session.CredentialBag) (*User, error) {
	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"username": username,
	})

	req := &fetch.Request{
		Op:     "profile",
		Key:    username,
		Method: http.MethodGet,
		URL:    GetProfileURL(c.config.APIBaseURL, username),
		Header: map[string]string{
			"x-ig-app-id": c.config.AppID,
			"Accept":      "application/json",
			"Referer":     GetUserProfileURL(username),
		},
	}

	var response ProfileResponse
	if err := c.fetcher.Fetch(ctx, req, creds, &response); err != nil {
		return nil, err
	}

	user := response.Data.User
	if user.Username == "" {
		user.Username = username
	}
	return user, nil
}

func commentCount(conn *CommentConnection) int {
	if conn == nil {
		return 0
	}
	return len(conn.Edges)
}
