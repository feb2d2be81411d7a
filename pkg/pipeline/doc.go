// Package pipeline runs a harvest end to end.
//
// A run discovers the posts of a hashtag, bridges the browser session into
// a cookie bag once, fetches each post's comments, and enriches every
// distinct commenter exactly once with contact details parsed from the
// biography. Posts are deduplicated by short code and commenters across
// all posts, both inside a per-run state value.
//
// Usage:
//
//	p, err := pipeline.New(pipeline.Dependencies{
//	    Discoverer:   discoverer,
//	    Cookies:      browser,
//	    Details:      client,
//	    Profiles:     client,
//	    Sink:         manager,
//	    DetailPacer:  ratelimit.NewPacer("detail", 2*time.Second, 2*time.Second, nil, log),
//	    ProfilePacer: ratelimit.NewPacer("profile", 30*time.Second, time.Minute, nil, log),
//	}, pipeline.Options{Topic: "golang", ScrollPasses: 1, Report: true})
//	if err != nil {
//	    return err
//	}
//	result, err := p.Run(ctx)
package pipeline
