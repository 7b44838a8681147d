// Package sample implements the Content Sampler: given a
// file handle and a sampling policy, it decides whether to index the
// full file, a head+tail slice, or nothing.
package sample

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/DrDavidL/my-search-buddy/internal/config"
	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
)

// Result is the outcome of sampling one file.
type Result struct {
	Content string // empty means "index name only, no content"
	Skipped bool   // true when the sampler deliberately produced no content
}

// Sample decides how much of a file's content to index: nothing, a
// head+tail slice sized by the configured coverage fraction, or the
// full file for small files.
func Sample(f *os.File, size int64, policy config.SamplingConfig) (Result, error) {
	if size > policy.MaxBytes {
		return Result{Skipped: true}, nil
	}

	if policy.CoverageFraction == 0 {
		return readFullDecoded(f, policy.MaxBytes, policy.SniffBytes)
	}

	if size <= policy.SmallFileThreshold {
		return readFullDecoded(f, policy.MaxBytes, policy.SniffBytes)
	}

	budget := minInt64(int64(float64(size)*policy.CoverageFraction), policy.MaxBytes)
	budget = minInt64(budget, size)

	headBytes := int64(float64(budget) * (policy.HeadFraction / policy.CoverageFraction))
	tailBytes := budget - headBytes

	// Enforce floors in order: floor head first, then adjust tail, then
	// re-floor tail if there is still budget. Neither floor may push the
	// total past budget.
	if headBytes < policy.MinHeadBytes && policy.MinHeadBytes <= budget {
		headBytes = policy.MinHeadBytes
		tailBytes = budget - headBytes
	}
	if tailBytes < policy.MinTailBytes {
		want := policy.MinTailBytes
		if headBytes+want <= budget {
			tailBytes = want
		} else {
			tailBytes = budget - headBytes
			if tailBytes < 0 {
				tailBytes = 0
			}
		}
	}
	if headBytes+tailBytes > budget {
		tailBytes = budget - headBytes
	}
	if headBytes < 0 {
		headBytes = 0
	}
	if tailBytes < 0 {
		tailBytes = 0
	}

	if headBytes+tailBytes >= size {
		return readFullDecoded(f, policy.MaxBytes, policy.SniffBytes)
	}

	headBuf := make([]byte, headBytes)
	if _, err := f.ReadAt(headBuf, 0); err != nil && err != io.EOF {
		return Result{}, err
	}

	sniffN := policy.SniffBytes
	if sniffN > len(headBuf) {
		sniffN = len(headBuf)
	}
	if looksBinary(headBuf[:sniffN]) {
		return Result{Skipped: true}, nil
	}

	tailBuf := make([]byte, tailBytes)
	if tailBytes > 0 {
		if _, err := f.ReadAt(tailBuf, size-tailBytes); err != nil && err != io.EOF {
			return Result{}, err
		}
		tailSniffN := sniffN
		if tailSniffN > len(tailBuf) {
			tailSniffN = len(tailBuf)
		}
		if looksBinary(tailBuf[:tailSniffN]) {
			tailBuf = nil
		}
	}

	head := decodeUTF8(headBuf)
	tail := decodeUTF8(tailBuf)
	return Result{Content: joinHeadTail(head, tail)}, nil
}

func readFullDecoded(f *os.File, maxBytes int64, sniffBytes int) (Result, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Result{}, err
	}
	buf, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return Result{}, err
	}
	sniffN := sniffBytes
	if sniffN > len(buf) {
		sniffN = len(buf)
	}
	if looksBinary(buf[:sniffN]) {
		return Result{Skipped: true}, nil
	}
	return Result{Content: decodeUTF8(buf)}, nil
}

func joinHeadTail(head, tail string) string {
	switch {
	case head == "":
		return tail
	case tail == "":
		return head
	default:
		return head + docmodel.ContentSeparator + tail
	}
}

// looksBinary reports a probable binary file: NUL byte anywhere, or more
// than 10% of bytes non-printable (byte < 9, or 14 <= byte < 32).
func looksBinary(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	nonPrintable := 0
	for _, c := range b {
		if c == 0 {
			return true
		}
		if c < 9 || (c >= 14 && c < 32) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(b)) > 0.10
}

func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
