package outputs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRange covers headers that do not parse as a bytes range.
	ErrMalformedRange = errors.New("malformed range header")
	// ErrUnsatisfiableRange covers ranges that lie entirely outside the file.
	ErrUnsatisfiableRange = errors.New("range not satisfiable")
)

// ByteRange is one satisfiable byte span of a file. End is inclusive.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange interprets a Range header against a file of the given size.
// A missing header yields (nil, nil), meaning the whole file. Multi-range
// requests are served as their first range only.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrMalformedRange
	}
	if first, _, multi := strings.Cut(spec, ","); multi {
		spec = strings.TrimSpace(first)
	}

	startPart, endPart, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrMalformedRange
	}

	if startPart == "" {
		// Suffix form: the final N bytes.
		n, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || n <= 0 {
			return nil, ErrMalformedRange
		}
		start := size - n
		if start < 0 {
			start = 0
		}
		return checkBounds(start, size-1, size)
	}

	start, err := strconv.ParseInt(startPart, 10, 64)
	if err != nil || start < 0 {
		return nil, ErrMalformedRange
	}

	end := size - 1
	if endPart != "" {
		end, err = strconv.ParseInt(endPart, 10, 64)
		if err != nil || end < 0 {
			return nil, ErrMalformedRange
		}
		if end > size-1 {
			end = size - 1
		}
	}
	return checkBounds(start, end, size)
}

func checkBounds(start, end, size int64) (*ByteRange, error) {
	if start >= size || start > end {
		return nil, ErrUnsatisfiableRange
	}
	return &ByteRange{Start: start, End: end}, nil
}
