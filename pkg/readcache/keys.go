package readcache

import (
	"sort"
	"strings"
)

// Key scheme, reproduced bit-for-bit for interop with the other services:
//
//	entity     <resourceType>:<id>
//	projected  <resourceType>:<id>:<fieldsCsv>
//	list       <resourceType>:list:<jsonFilter>:<fieldsCsv|"all">
//
// jsonFilter is the canonical JSON encoding of the filter (object keys
// sorted), so two logically identical filters always produce the same key.

// KeySeparator delimits cache key segments.
const KeySeparator = ":"

// EntityKey builds the cache key for a single entity, optionally projected
// to a field selection. An empty selection yields the bare two-segment key.
func EntityKey(resource, id string, fields []string) string {
	parts := []string{resource, id}
	if csv := FieldsCsv(fields); csv != "all" {
		parts = append(parts, csv)
	}
	return strings.Join(parts, KeySeparator)
}

// ListKey builds the cache key for one page of a filtered list query.
// filterJSON must be the canonical JSON of the filter (see store.Filter).
func ListKey(resource, filterJSON string, fields []string) string {
	return strings.Join([]string{resource, "list", filterJSON, FieldsCsv(fields)}, KeySeparator)
}

// ListPrefix is the invalidation prefix covering every cached page of the
// given resource type.
func ListPrefix(resource string) string {
	return resource + KeySeparator + "list" + KeySeparator
}

// EntityPrefix is the invalidation prefix covering every projected variant
// of one entity.
func EntityPrefix(resource, id string) string {
	return resource + KeySeparator + id + KeySeparator
}

// FieldsCsv normalizes a field selection to its key segment: sorted,
// de-duplicated, comma-joined, or "all" when no selection applies.
func FieldsCsv(fields []string) string {
	if len(fields) == 0 {
		return "all"
	}
	seen := make(map[string]struct{}, len(fields))
	sorted := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		sorted = append(sorted, f)
	}
	if len(sorted) == 0 {
		return "all"
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
