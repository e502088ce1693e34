// Package domain models port-to-port freight rate lookups.
//
// # Data Model
//
// Regions form a forest keyed by slug: each region names an optional parent,
// and there may be many roots (e.g. "northern_europe" under no parent, with
// "scandinavia" beneath it). Ports are leaves identified by a five-letter
// UN/LOCODE-style code and belong to exactly one region. Price observations
// record a single quoted price between an origin port and a destination port
// on a calendar day.
//
// # Identifiers
//
// Callers name an origin or destination either as a port code or as a region
// slug. The distinction is made once, at the boundary, by [ParseIdentifier]:
//
//	"port:CNSGH"       explicit port code
//	"region:china_main" explicit region slug
//	"CNSGH"            untagged, length <= 5, treated as a port code
//	"china_main"       untagged, length > 5, treated as a region slug
//
// # Resolution
//
// A region slug expands to every port whose parent region is the slug itself
// or any of its descendants. [Resolver] walks the hierarchy one level at a time
// with a work queue and a visited set, so depth is bounded only by the data
// and a cycle is reported as a [HierarchyCycleError] instead of looping.
// Unknown slugs resolve to an empty set.
//
// # Aggregation
//
// [Aggregator] groups the matching observations by day and reports the mean
// price per day, truncated toward zero to integer units. Days with fewer than
// the configured minimum number of observations (3 by default) are dropped
// entirely; they never appear in the output with an empty price.
package domain
