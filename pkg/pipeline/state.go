package pipeline

import (
	"igharvest/pkg/instagram"
	"igharvest/pkg/storage"
)

// state holds the dedup sets of one run
type state struct {
	posts      map[string]struct{}
	refs       []instagram.PostRef
	seen       map[string]struct{}
	identities []string
	rows       []storage.CommentRow
}

func newState() *state {
	return &state{
		posts: make(map[string]struct{}),
		seen:  make(map[string]struct{}),
	}
}

// addPost keeps the first reference for each short code
func (s *state) addPost(ref instagram.PostRef) bool {
	if _, ok := s.posts[ref.Shortcode]; ok {
		return false
	}
	s.posts[ref.Shortcode] = struct{}{}
	s.refs = append(s.refs, ref)
	return true
}

// addComments appends one row per commenter of ref and queues unseen
// commenters for enrichment. It returns how many were new.
func (s *state) addComments(ref instagram.PostRef, usernames []string) int {
	added := 0
	for _, u := range usernames {
		s.rows = append(s.rows, storage.CommentRow{PostURL: ref.URL, Username: u})
		if s.addIdentity(u) {
			added++
		}
	}
	return added
}

func (s *state) addIdentity(username string) bool {
	if username == "" {
		return false
	}
	if _, ok := s.seen[username]; ok {
		return false
	}
	s.seen[username] = struct{}{}
	s.identities = append(s.identities, username)
	return true
}
