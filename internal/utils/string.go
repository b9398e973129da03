package utils

import (
	"strings"
)

// Slugify lower-cases a name and joins its words with underscores,
// e.g. "Planning Alerts" becomes "planning_alerts".
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

func IsStringInSlice(s string, slice []string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; !exists {
			seen[v] = struct{}{}
			unique = append(unique, v)
		}
	}

	return unique
}
