package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"igharvest/pkg/contact"
)

var (
	commentsHeader = []string{"post_url", "comment_username"}
	profilesHeader = []string{"username", "biography", "phone_number", "email", "link"}
)

// CommentRow pairs a post with one of its commenters
type CommentRow struct {
	PostURL  string
	Username string
}

func (r CommentRow) values() []string {
	return []string{r.PostURL, r.Username}
}

func profileValues(r contact.Record) []string {
	return []string{r.Username, r.Biography, r.Phone, r.Email, r.Link}
}

// WriteComments writes the post to commenter table and returns its path
func (m *Manager) WriteComments(rows []CommentRow) (string, error) {
	return m.writeAtomic(m.names.Comments, func(w io.Writer) error {
		records := make([][]string, 0, len(rows))
		for _, r := range rows {
			records = append(records, r.values())
		}
		return writeCSV(w, commentsHeader, records)
	})
}

// WriteProfiles writes the commenter to contact table and returns its path
func (m *Manager) WriteProfiles(profiles []contact.Record) (string, error) {
	return m.writeAtomic(m.names.Profiles, func(w io.Writer) error {
		records := make([][]string, 0, len(profiles))
		for _, p := range profiles {
			records = append(records, profileValues(p))
		}
		return writeCSV(w, profilesHeader, records)
	})
}

func writeCSV(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

// ReadCommentUsernames returns the distinct comment_username values of a
// comments table in file order. Blank values are skipped.
func ReadCommentUsernames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open comments file: %w", err)
	}
	defer f.Close()
	return readCommentUsernames(f)
}

func readCommentUsernames(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")), "comment_username") {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("missing required column %q", "comment_username")
	}

	seen := make(map[string]struct{})
	usernames := []string{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if idx >= len(rec) {
			continue
		}
		name := strings.TrimSpace(rec[idx])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		usernames = append(usernames, name)
	}
	return usernames, nil
}
