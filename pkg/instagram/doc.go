// Package instagram knows the shapes of the three remote resources a
// harvest touches: the hashtag page, the post detail query and the
// profile lookup.
//
// URL helpers and link normalization live in endpoints.go. The Client sends
// detail and profile requests through a retrying Fetcher:
//
//	client := instagram.NewClient(fetcher, instagram.DefaultClientConfig(), log)
//
//	media, err := client.FetchPostDetail(ctx, instagram.NewPostRef("C1abc"), creds)
//	if err != nil {
//	    var fe *errors.FetchError
//	    if stderrors.As(err, &fe) {
//	        // skip this post
//	    }
//	}
//
//	user, err := client.FetchProfile(ctx, "someone", creds)
package instagram
