// package resolver adapts the upstream extractor service.
//
// The extractor wraps yt-dlp style extraction behind an HTTP API: it turns
// an opaque media id into a time-limited audio URL plus metadata, runs
// free-text searches, and lists related media. Calls are slow, rate-limited,
// and can fail; everything above this package treats them as a black box.
package resolver
