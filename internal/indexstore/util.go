package indexstore

import "strings"

func toLowerASCIIFast(s string) string {
	return strings.ToLower(s)
}

func indexFrom(haystack, needle string, from int) int {
	if from > len(haystack) {
		return -1
	}
	idx := strings.Index(haystack[from:], needle)
	if idx == -1 {
		return -1
	}
	return idx + from
}
