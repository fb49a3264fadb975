// Package hop parses routing-log lines into edge records.
//
// A line is exactly four '|'-delimited fields:
//
//	source|destination|claim_id|status_code
//
// Fields are treated as opaque strings; the status code is never parsed as
// an integer, and non-UTF-8 byte sequences are carried through unexamined.
package hop

import "strings"

const (
	fieldDelimiter    = "|"
	expectedFieldCols = 4
)

// Edge is a single parsed hop: a directed arc from Source to Destination
// stamped with the (ClaimID, StatusCode) key.
type Edge struct {
	Source      string
	Destination string
	ClaimID     string
	StatusCode  string
}

// Key identifies the group an Edge belongs to.
type Key struct {
	ClaimID    string
	StatusCode string
}

// Parse splits one line into an Edge. ok is false for any line that should
// be skipped: wrong field count, or an empty claim id / status code field.
// Trailing newline characters must already be stripped by the caller (the
// bufio.Scanner line-splitter used by internal/groupread does this).
func Parse(line string) (edge Edge, ok bool) {
	if line == "" {
		return Edge{}, false
	}
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) != expectedFieldCols {
		return Edge{}, false
	}
	claimID, statusCode := parts[2], parts[3]
	if claimID == "" || statusCode == "" {
		return Edge{}, false
	}
	return Edge{
		Source:      parts[0],
		Destination: parts[1],
		ClaimID:     claimID,
		StatusCode:  statusCode,
	}, true
}

// KeyOf returns the group key a raw line belongs to, applying the same
// field checks as Parse but without allocating an Edge. Used by the partitioner, which only needs the key to
// pick a bucket and otherwise forwards the raw line text verbatim.
func KeyOf(line string) (key Key, ok bool) {
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) != expectedFieldCols {
		return Key{}, false
	}
	if parts[2] == "" || parts[3] == "" {
		return Key{}, false
	}
	return Key{ClaimID: parts[2], StatusCode: parts[3]}, true
}

// String renders a Key back to its (claim_id, status_code) output form,
// matching the contractual output line in spec.md §6.
func (k Key) String() string {
	return k.ClaimID + "," + k.StatusCode
}
