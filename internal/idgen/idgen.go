// Package idgen mints record identifiers and creation instants.
//
// An identifier is the creation time in decimal milliseconds followed by a
// nine character alphanumeric suffix taken from the tail of an xid:
//
//	1718000000123 + "c9k2e0rrg" → "1718000000123c9k2e0rrg"
//
// The xid tail encodes the process id and xid's per-process counter, so two
// identifiers minted in the same millisecond by one process never share a
// suffix. Across processes a clash needs the same millisecond, pid and counter
// value. Identifiers sort roughly by creation time while the millisecond
// prefix has the same number of digits.
package idgen

import (
	"strconv"
	"time"

	"github.com/rs/xid"
)

// SuffixLen is the length of the random-looking tail of every identifier.
const SuffixLen = 9

// Clock returns the current instant. time.Now satisfies it.
type Clock func() time.Time

// Generator mints identifiers. The zero value is not usable; call New.
type Generator struct {
	now Clock
}

// New returns a Generator reading time from now, or from time.Now when nil.
func New(now Clock) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Next returns a fresh identifier and the instant, in unix milliseconds, it
// was minted at. Callers use the instant as the record's creation time.
func (g *Generator) Next() (string, int64) {
	ms := g.now().UnixMilli()
	return strconv.FormatInt(ms, 10) + suffix(), ms
}

// Now returns the generator clock in unix milliseconds.
func (g *Generator) Now() int64 {
	return g.now().UnixMilli()
}

func suffix() string {
	s := xid.New().String()
	return s[len(s)-SuffixLen:]
}
