package discovery

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"igharvest/pkg/instagram"
)

// PostLinkSelector matches anchors pointing at a post
const PostLinkSelector = "a[href*='/p/']"

// ScanLinks returns the post references linked from a rendered page in
// document order, one per short code
func ScanLinks(html string) ([]instagram.PostRef, error) {
	set := newRefSet()
	if err := set.scan(html); err != nil {
		return nil, err
	}
	return set.refs, nil
}

// refSet accumulates post references across scans, keyed by short code
type refSet struct {
	seen map[string]struct{}
	refs []instagram.PostRef
}

func newRefSet() *refSet {
	return &refSet{seen: make(map[string]struct{}), refs: []instagram.PostRef{}}
}

func (s *refSet) add(ref instagram.PostRef) bool {
	if _, ok := s.seen[ref.Shortcode]; ok {
		return false
	}
	s.seen[ref.Shortcode] = struct{}{}
	s.refs = append(s.refs, ref)
	return true
}

// scan merges every post link in html
func (s *refSet) scan(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parsing rendered page: %w", err)
	}
	doc.Find(PostLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if ref, ok := instagram.ParsePostRef(href); ok {
			s.add(ref)
		}
	})
	return nil
}

func (s *refSet) len() int { return len(s.refs) }
