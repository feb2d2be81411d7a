package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"igharvest/pkg/contact"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "out"), FileNames{})
	require.NoError(t, err)
	return m
}

func TestNewManagerDefaults(t *testing.T) {
	m := newManager(t)
	assert.DirExists(t, m.GetOutputDir())
	assert.Equal(t, DefaultFileNames(), m.names)
}

func TestWriteComments(t *testing.T) {
	m := newManager(t)
	path, err := m.WriteComments([]CommentRow{
		{PostURL: "https://www.instagram.com/p/A/", Username: "u1"},
		{PostURL: "https://www.instagram.com/p/A/", Username: "u2"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "post_url,comment_username\n"+
		"https://www.instagram.com/p/A/,u1\n"+
		"https://www.instagram.com/p/A/,u2\n", string(data))
	assert.NoFileExists(t, path+".tmp")
}

func TestWriteProfilesQuotesBiography(t *testing.T) {
	m := newManager(t)
	path, err := m.WriteProfiles([]contact.Record{
		contact.Parse("u1", "Call me +1 555-123-4567, mail a@b.com"),
		contact.Parse("u2", "line one\nline two"),
	})
	require.NoError(t, err)
	assert.Equal(t, "profiles_phone.csv", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.SplitN(string(data), "\n", 2)
	assert.Equal(t, "username,biography,phone_number,email,link", lines[0])
	assert.Contains(t, lines[1], `u1,"Call me +1 555-123-4567, mail a@b.com",+1 555-123-4567,a@b.com,`)
	assert.Contains(t, lines[1], "\"line one\nline two\"")
}

func TestWriteEmptyTablesKeepHeader(t *testing.T) {
	m := newManager(t)
	path, err := m.WriteComments(nil)
	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "post_url,comment_username\n", string(data))
}

func TestReadCommentUsernames(t *testing.T) {
	m := newManager(t)
	path, err := m.WriteComments([]CommentRow{
		{PostURL: "A", Username: "u1"},
		{PostURL: "A", Username: "u2"},
		{PostURL: "B", Username: "u2"},
		{PostURL: "B", Username: " u3 "},
		{PostURL: "C", Username: ""},
	})
	require.NoError(t, err)

	users, err := ReadCommentUsernames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, users)
}

func TestReadCommentUsernamesErrors(t *testing.T) {
	_, err := ReadCommentUsernames(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = readCommentUsernames(strings.NewReader("post_url,user\nA,u1\n"))
	assert.ErrorContains(t, err, "comment_username")

	users, err := readCommentUsernames(strings.NewReader("\ufeffcomment_username\nu1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users)
}

func TestWriteWorkbook(t *testing.T) {
	m := newManager(t)
	path, err := m.WriteWorkbook(
		[]CommentRow{{PostURL: "https://www.instagram.com/p/A/", Username: "u1"}},
		[]contact.Record{contact.Parse("u1", "mail a@b.com")},
	)
	require.NoError(t, err)
	assert.Equal(t, "harvest.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"comments", "profiles"}, f.GetSheetList())

	comments, err := f.GetRows("comments")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"post_url", "comment_username"},
		{"https://www.instagram.com/p/A/", "u1"},
	}, comments)

	profiles, err := f.GetRows("profiles")
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "a@b.com", profiles[1][3])
}

func TestWriteJSON(t *testing.T) {
	m := newManager(t)
	path, err := m.WriteJSON("report.json", map[string]int{"posts": 2})
	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	assert.JSONEq(t, `{"posts":2}`, string(data))
}
