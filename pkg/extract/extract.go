// Package extract pulls commenter usernames out of a post detail document.
package extract

import (
	"encoding/json"

	"igharvest/pkg/instagram"
)

// Identities returns the distinct commenter usernames of media in comment
// order. The threaded connection is used when present, otherwise the flat
// one. Missing data yields an empty slice.
func Identities(media *instagram.ShortcodeMedia) []string {
	out := []string{}
	conn := media.Comments()
	if conn == nil {
		return out
	}

	seen := make(map[string]struct{}, len(conn.Edges))
	for _, edge := range conn.Edges {
		name := edge.Node.Owner.Username
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// IdentitiesFromJSON decodes a raw shortcode_media object and extracts from it.
// Undecodable input yields an empty slice.
func IdentitiesFromJSON(raw []byte) []string {
	var media instagram.ShortcodeMedia
	if err := json.Unmarshal(raw, &media); err != nil {
		return []string{}
	}
	return Identities(&media)
}
