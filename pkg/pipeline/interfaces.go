package pipeline

import (
	"context"

	"igharvest/pkg/contact"
	"igharvest/pkg/instagram"
	"igharvest/pkg/session"
	"igharvest/pkg/storage"
)

// Discoverer lists the posts of a hashtag
type Discoverer interface {
	Discover(ctx context.Context, topic string, scrollPasses int) ([]instagram.PostRef, error)
}

// DetailFetcher retrieves one post with its comments
type DetailFetcher interface {
	FetchPostDetail(ctx context.Context, ref instagram.PostRef, creds session.CredentialBag) (*instagram.ShortcodeMedia, error)
}

// ProfileFetcher retrieves one user profile
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, username string, creds session.CredentialBag) (*instagram.User, error)
}

// Pacer waits between consecutive items of a stage
type Pacer interface {
	Pause(ctx context.Context) error
}

// Sink persists the collected tables and the run report
type Sink interface {
	WriteComments(rows []storage.CommentRow) (string, error)
	WriteProfiles(profiles []contact.Record) (string, error)
	WriteWorkbook(rows []storage.CommentRow, profiles []contact.Record) (string, error)
	WriteReport(r interface{}) (string, error)
}

// SessionSaver stores the bridged cookies for later runs
type SessionSaver interface {
	SaveSession(account string, bag session.CredentialBag) error
}
