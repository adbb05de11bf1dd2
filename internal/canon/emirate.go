package canon

import (
    "strings"
)

// region holds one entry of the listing provider's fixed location table.
type region struct {
    Name string
    ID   int
}

// regions is the provider's location table. Order matters: the first entry is
// the fallback when a source name has no match. Matching is case-sensitive
// because the CRM emits these names verbatim from a closed enumeration.
var regions = []region{
    {"Dubai", 1},
    {"Abu Dhabi", 2},
    {"Sharjah", 3},
    {"Ajman", 4},
    {"Ras Al Khaimah", 5},
    {"Fujairah", 6},
    {"Umm Al Quwain", 7},
}

// RegionID resolves a source region name to the provider's numeric location
// id, falling back to the first table entry when nothing matches.
func RegionID(name string) int {
    for _, r := range regions {
        if r.Name == name { return r.ID }
    }
    return regions[0].ID
}

// EmirateSlug normalizes an emirate name to the provider's lowercase
// underscore-separated identifier, e.g. "Abu Dhabi" -> "abu_dhabi".
// Empty input defaults to dubai.
func EmirateSlug(name string) string {
    if name == "" {
        name = "Dubai"
    }
    return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// ComplianceRequired reports whether the emirate mandates a regulatory
// compliance block on every listing.
func ComplianceRequired(slug string) bool {
    return slug == "dubai" || slug == "abu_dhabi"
}
