// Package ratelimit paces outgoing traffic.
//
// Two layers are provided:
//
// Ceiling:
//   - A requests-per-minute cap built on golang.org/x/time/rate
//   - Shared by every API call the fetcher makes during a run
//
// Pacer:
//   - A randomized pause between consecutive items of one stage
//   - Post details use a short pause, profile lookups a much longer one
//
// Usage:
//
//	ceiling := ratelimit.NewCeiling(30)
//	if err := ceiling.Wait(ctx); err != nil {
//	    return err
//	}
//
//	profiles := ratelimit.NewPacer("profile", 30*time.Second, time.Minute, nil, log)
//	for _, user := range users {
//	    if err := profiles.Pause(ctx); err != nil {
//	        break
//	    }
//	    // fetch profile
//	}
package ratelimit
