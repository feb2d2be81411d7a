// Package storage writes harvest results to the output directory.
//
// The storage package handles:
//   - The comments table (post_url, comment_username) as CSV
//   - The profiles table (username, biography, phone_number, email, link) as CSV
//   - An optional xlsx workbook holding both tables
//   - JSON documents such as the run report
//   - Reading commenter usernames back from an earlier comments table
//
// Every file is written to a temporary name and renamed into place.
//
// Usage:
//
//	manager, err := storage.NewManager("out", storage.DefaultFileNames())
//	if err != nil {
//	    return err
//	}
//	path, err := manager.WriteComments(rows)
package storage
