package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostRef(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
		ok   bool
	}{
		{"relative", "/p/C1abc/", "C1abc", true},
		{"absolute", "https://www.instagram.com/p/C1abc/", "C1abc", true},
		{"no trailing slash", "https://www.instagram.com/p/C1abc", "C1abc", true},
		{"query string", "https://www.instagram.com/p/C1abc/?img_index=2", "C1abc", true},
		{"query without slash", "/p/C1abc?utm_source=ig", "C1abc", true},
		{"fragment", "/p/C1abc#top", "C1abc", true},
		{"user prefix", "/someone/p/C1abc/", "C1abc", true},
		{"liked by", "/p/C1abc/liked_by/", "", false},
		{"comments page", "/p/C1abc/comments/", "", false},
		{"reel", "/reel/C1abc/", "", false},
		{"empty code", "/p/", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ParsePostRef(tt.href)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, ref.Shortcode)
				assert.Equal(t, fmt.Sprintf("https://www.instagram.com/p/%s/", tt.want), ref.URL)
			}
		})
	}
}

func TestParsePostRefCollapsesVariants(t *testing.T) {
	a, _ := ParsePostRef("/p/XYZ/?img_index=1")
	b, _ := ParsePostRef("https://www.instagram.com/p/XYZ/")
	assert.Equal(t, a, b)
}

func TestGetTagURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/explore/tags/golang/", GetTagURL(BaseURL, "golang"))
	assert.Equal(t, "https://www.instagram.com/explore/tags/%E4%BF%9D%E5%81%A5%E5%93%81/", GetTagURL(BaseURL+"/", "保健品"))
}

func TestGetProfileURL(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected string
	}{
		{"simple username", "testuser", APIBaseURL + ProfileEndpoint + "?username=testuser"},
		{"username with underscore", "test_user", APIBaseURL + ProfileEndpoint + "?username=test_user"},
		{"username with dots", "test.user", APIBaseURL + ProfileEndpoint + "?username=test.user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetProfileURL(APIBaseURL, tt.username)
			assert.Equal(t, tt.expected, result)

			_, err := url.Parse(result)
			assert.NoError(t, err)
		})
	}
}

func TestGetPostDetailForm(t *testing.T) {
	form := GetPostDetailForm(PostDetailQueryHash, "C1abc", 0, "")
	assert.Equal(t, PostDetailQueryHash, form.Get("query_hash"))
	assert.Equal(t, `{"shortcode":"C1abc","first":50,"after":null}`, form.Get("variables"))

	next := GetPostDetailForm(PostDetailQueryHash, "C1abc", 500, "cursor==")
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(next.Get("variables")), &vars))
	assert.Equal(t, float64(MaxCommentPageSize), vars["first"])
	assert.Equal(t, "cursor==", vars["after"])

	small := GetPostDetailForm(PostDetailQueryHash, "C1abc", 12, "")
	assert.Contains(t, small.Get("variables"), `"first":12`)
}

func TestGetPostURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/p/ABC123/", GetPostURL("ABC123"))
	assert.Equal(t, "", GetPostURL(""))
	assert.Equal(t, "https://www.instagram.com/testuser/", GetUserProfileURL("testuser"))
	assert.Equal(t, "", GetUserProfileURL(""))
	assert.Equal(t, "https://example.test/graphql/query", GetGraphQLURL("https://example.test/"))
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"validuser", true},
		{"valid_user", true},
		{"valid.user", true},
		{"user123", true},
		{"", false},
		{"invalid-user", false},
		{"invalid user", false},
		{"invalid@user", false},
		{"a123456789012345678901234567890", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidUsername(tt.username))
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"username", "username"},
		{"@username", "username"},
		{"username/", "username"},
		{" @username/ ", "username"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUsername(tt.input))
		})
	}
}
