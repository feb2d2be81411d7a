package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"igharvest/pkg/instagram"
)

func conn(users ...string) *instagram.CommentConnection {
	c := &instagram.CommentConnection{}
	for _, u := range users {
		c.Edges = append(c.Edges, instagram.CommentEdge{Node: instagram.CommentNode{Owner: instagram.Owner{Username: u}}})
	}
	return c
}

func TestIdentities(t *testing.T) {
	tests := []struct {
		name  string
		media *instagram.ShortcodeMedia
		want  []string
	}{
		{"nil media", nil, []string{}},
		{"no connections", &instagram.ShortcodeMedia{}, []string{}},
		{"zero edges", &instagram.ShortcodeMedia{EdgeMediaToComment: conn()}, []string{}},
		{"flat only", &instagram.ShortcodeMedia{EdgeMediaToComment: conn("u1", "u2")}, []string{"u1", "u2"}},
		{"threaded preferred", &instagram.ShortcodeMedia{
			EdgeMediaToParentComment: conn("p1"),
			EdgeMediaToComment:       conn("f1", "f2"),
		}, []string{"p1"}},
		{"empty threaded still wins", &instagram.ShortcodeMedia{
			EdgeMediaToParentComment: conn(),
			EdgeMediaToComment:       conn("f1"),
		}, []string{}},
		{"duplicates removed in order", &instagram.ShortcodeMedia{EdgeMediaToComment: conn("b", "a", "b", "c", "a")}, []string{"b", "a", "c"}},
		{"blank owners ignored", &instagram.ShortcodeMedia{EdgeMediaToComment: conn("", "a", "")}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identities(tt.media)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentitiesFlatEqualsParentAbsent(t *testing.T) {
	flat := conn("x", "y", "x")
	withNilParent := &instagram.ShortcodeMedia{EdgeMediaToParentComment: nil, EdgeMediaToComment: flat}
	flatOnly := &instagram.ShortcodeMedia{EdgeMediaToComment: flat}
	assert.Equal(t, Identities(flatOnly), Identities(withNilParent))
}

func TestIdentitiesIsIdempotent(t *testing.T) {
	media := &instagram.ShortcodeMedia{EdgeMediaToParentComment: conn("u3", "u1", "u3", "u2")}
	first := Identities(media)
	assert.Equal(t, first, Identities(media))
	assert.Len(t, media.EdgeMediaToParentComment.Edges, 4)
}

func TestIdentitiesFromJSON(t *testing.T) {
	raw := []byte(`{
		"shortcode": "A",
		"edge_media_to_comment": {"edges": [
			{"node": {"owner": {"username": "u1"}}},
			{"node": {"owner": {}}},
			{"node": {"owner": {"username": "u2"}}}
		]}
	}`)
	assert.Equal(t, []string{"u1", "u2"}, IdentitiesFromJSON(raw))

	assert.Equal(t, []string{}, IdentitiesFromJSON([]byte(`not json`)))
	assert.Equal(t, []string{}, IdentitiesFromJSON([]byte(`{
		"edge_media_to_parent_comment": null,
		"edge_media_to_comment": {"edges": [{"node": {"owner": {"username": "u1"}}}]}
	}`)))
	assert.Equal(t, []string{}, IdentitiesFromJSON([]byte(`{"edge_media_to_comment": null}`)))
	assert.Equal(t, []string{}, IdentitiesFromJSON([]byte(`{"edge_media_to_comment": {"edges": "wrong"}}`)))
}
