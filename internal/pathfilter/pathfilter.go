// Package pathfilter decides whether a path is excluded from an operation
// based on a blacklist of path prefixes.
package pathfilter

import "strings"

// Excluded reports whether path matches any blacklist entry. An entry
// matches when its full segment sequence is a prefix of the candidate's
// segment sequence, so a blacklisted "a/b" excludes "a/b" and "a/b/c" but
// never "a/bc", and a candidate that is only a prefix of an entry is not
// excluded.
func Excluded(path string, blacklist []string) bool {
	for _, entry := range blacklist {
		if matches(path, entry) {
			return true
		}
	}
	return false
}

func matches(path, entry string) bool {
	if path == entry {
		return true
	}

	pathSegs := segments(path)
	entrySegs := segments(entry)
	if len(entrySegs) == 0 || len(pathSegs) < len(entrySegs) {
		return false
	}
	for i, seg := range entrySegs {
		if pathSegs[i] != seg {
			return false
		}
	}
	return true
}

// segments splits on the path separator, dropping empty segments so leading
// and trailing separators don't affect matching.
func segments(path string) []string {
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}
