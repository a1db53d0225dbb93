// package stream implements the resolution engine at the heart of the
// gateway.
//
// A [Service] owns the TTL cache tiers and the single-flight group, and
// orchestrates every resolve: cache fast path, coalesced upstream call,
// cache population, history recording, and best-effort prefetch of hinted
// upcoming ids. Suggestion and related-list policy also live here.
package stream
