package domain

import "strings"

// Side selects an end of a list.
type Side int

const (
	// Left is the head of the list (LPUSH, LPOP, BLPOP).
	Left Side = iota
	// Right is the tail of the list (RPUSH, RPOP, BRPOP).
	Right
)

// String returns the protocol spelling of the side.
func (s Side) String() string {
	if s == Right {
		return "RIGHT"
	}
	return "LEFT"
}

// Opposite returns the other end of the list.
func (s Side) Opposite() Side {
	if s == Right {
		return Left
	}
	return Right
}

// ParseSide parses LEFT or RIGHT, case-insensitively.
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(s) {
	case "LEFT":
		return Left, true
	case "RIGHT":
		return Right, true
	default:
		return Left, false
	}
}

// PopResult is the element delivered to a blocking pop and the key it came from.
type PopResult struct {
	Key   []byte
	Value []byte
}

// NormalizeRange converts redis-style inclusive start/stop indexes (negative
// counts from the end) into a zero-based offset and element count for a list
// of the given length. An empty range yields count 0.
func NormalizeRange(start, stop, length int64) (offset, count int64) {
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop || start >= length {
		return 0, 0
	}
	return start, stop - start + 1
}

// NormalizeIndex converts a redis-style index into a zero-based offset.
// ok is false when the index falls outside the list.
func NormalizeIndex(index, length int64) (offset int64, ok bool) {
	if index < 0 {
		index += length
	}
	if index < 0 || index >= length {
		return 0, false
	}
	return index, true
}
