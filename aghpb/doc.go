// Package aghpb provides a client for the AGHPB API, which serves images of
// anime girls holding programming books along with their metadata.
//
// The client is a thin wrapper: every call is a single HTTP round trip with no
// retries, backoff or caching, and every failure is returned to the caller.
//
// # Usage
//
// The package-level functions use a lazily created process-wide client:
//
//	book, err := aghpb.Random(ctx, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(book.Metadata.Name, book.Metadata.Category)
//	book.Save("./anime_girl" + book.Extension())
//
// Construct a Client to pick the origin, logger or transport:
//
//	logger := zerolog.New(os.Stdout)
//	client, err := aghpb.NewClient(
//		"https://api.devgoldy.xyz/aghpb",
//		logger,
//		aghpb.WithTimeout(10*time.Second),
//		aghpb.WithUserAgent("my-bot/1.0"),
//	)
//
//	results, err := client.Search(ctx, "tohru", aghpb.SearchOptions{Limit: 5})
//	for _, meta := range results {
//		book, err := client.GetByID(ctx, meta.SearchID)
//		...
//	}
//
// # Error Handling
//
// Failures fall into four types:
//
//   - TransportError: no response was obtained (DNS, connect, IO, cancellation)
//   - APIError: the service answered with a structured {error, message} body
//   - MalformedResponseError: the response did not match the documented shape
//   - DecodeError: image bytes could not be decoded
//
// Use errors.As to tell them apart:
//
//	var apiErr *aghpb.APIError
//	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
//		// unknown search id or category
//	}
package aghpb
