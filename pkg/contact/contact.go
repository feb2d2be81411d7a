// Package contact derives phone, email and link fields from a biography.
package contact

import "regexp"

var (
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-]{8,}\d`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	linkPattern  = regexp.MustCompile(`https?://[^\s]+`)
)

// Record is one enriched commenter. Derived fields are "" when nothing matched.
type Record struct {
	Username  string
	Biography string
	Phone     string
	Email     string
	Link      string
}

// Parse builds a record from a username and biography
func Parse(username, bio string) Record {
	return Record{
		Username:  username,
		Biography: bio,
		Phone:     Phone(bio),
		Email:     Email(bio),
		Link:      Link(bio),
	}
}

// Phone returns the first phone-like run of at least ten digits
func Phone(bio string) string { return phonePattern.FindString(bio) }

// Email returns the first address in bio
func Email(bio string) string { return emailPattern.FindString(bio) }

// Link returns the first http(s) URL in bio
func Link(bio string) string { return linkPattern.FindString(bio) }

// HasAny reports whether any contact field was found
func (r Record) HasAny() bool {
	return r.Phone != "" || r.Email != "" || r.Link != ""
}
