package sequence

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"image-labeler/internal/domain"
)

var ErrTooManyValues = errors.New("too many values")

// Len is the number of values Simple(start, end, step) yields. It saturates
// at math.MaxUint64 instead of overflowing.
func Len(start, end, step int) uint64 {
	if step < 1 {
		step = 1
	}
	// Two's complement makes the unsigned difference exact for any pair.
	var span uint64
	if start <= end {
		span = uint64(end) - uint64(start)
	} else {
		span = uint64(start) - uint64(end)
	}
	n := span / uint64(step)
	if n == math.MaxUint64 {
		return n
	}
	return n + 1
}

// Simple is the inclusive arithmetic sequence from start to end. It counts
// down when start > end. Step is forced to at least 1. Callers bound the size
// with Len first.
func Simple(start, end, step int) []int {
	if step < 1 {
		step = 1
	}

	n := Len(start, end, step)
	out := make([]int, n)
	for i := range out {
		// i*step never passes end, so the offset stays in range.
		off := uint64(i) * uint64(step)
		if start <= end {
			out[i] = int(uint64(start) + off)
		} else {
			out[i] = int(uint64(start) - off)
		}
	}
	return out
}

// ParseRanges expands a list such as "1-10:2, 15; 20-18" into integers.
// Tokens are separated by commas or semicolons, a range is A-B with an
// optional :STEP (or xSTEP) suffix. Malformed tokens are skipped and the
// result keeps only the first occurrence of each value. More than limit
// distinct values, or a single range longer than limit, is ErrTooManyValues.
func ParseRanges(spec string, limit int) ([]int, error) {
	out := make([]int, 0)
	seen := make(map[int]struct{})

	fields := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ';'
	})
	for _, tok := range fields {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		tok = strings.ReplaceAll(tok, "x", ":")

		parsed, ok, err := parseToken(tok, limit)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, v := range parsed {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
		if len(out) > limit {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyValues, limit)
		}
	}

	return out, nil
}

func parseToken(tok string, limit int) ([]int, bool, error) {
	sep := rangeSeparator(tok)
	if sep < 0 {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, false, nil
		}
		return []int{n}, true, nil
	}

	bounds, stepPart, hasStep := strings.Cut(tok, ":")
	step := 1
	if hasStep {
		s, err := strconv.Atoi(strings.TrimSpace(stepPart))
		if err != nil {
			return nil, false, nil
		}
		step = s
	}

	a, err := strconv.Atoi(strings.TrimSpace(bounds[:sep]))
	if err != nil {
		return nil, false, nil
	}
	b, err := strconv.Atoi(strings.TrimSpace(bounds[sep+1:]))
	if err != nil {
		return nil, false, nil
	}

	if step < 1 {
		step = 1
	}
	if Len(a, b, step) > uint64(limit) {
		return nil, false, fmt.Errorf("%w: range %s exceeds %d", ErrTooManyValues, tok, limit)
	}
	return Simple(a, b, step), true, nil
}

// rangeSeparator finds the '-' between the two bounds. A leading '-' is a sign.
func rangeSeparator(tok string) int {
	bounds, _, _ := strings.Cut(tok, ":")
	trimmed := strings.TrimLeft(bounds, " ")
	offset := len(bounds) - len(trimmed)
	if len(trimmed) < 2 {
		return -1
	}
	idx := strings.Index(trimmed[1:], "-")
	if idx < 0 {
		return -1
	}
	return offset + idx + 1
}

// Literal is the single-element sequence used in text mode.
func Literal(text string) []domain.RenderValue {
	return []domain.RenderValue{domain.TextValue(text)}
}

// Expand turns a text source into the ordered values of a run. A ranges
// source that yields nothing falls back to start/end/step. More than limit
// values is ErrTooManyValues.
func Expand(src domain.TextSource, limit int) ([]domain.RenderValue, error) {
	switch src.Kind {
	case domain.SourceText:
		return Literal(src.Text), nil
	case domain.SourceRanges:
		nums, err := ParseRanges(src.Ranges, limit)
		if err != nil {
			return nil, err
		}
		if len(nums) > 0 {
			return numbers(nums), nil
		}
	}

	if Len(src.Start, src.End, src.Step) > uint64(limit) {
		return nil, fmt.Errorf("%w: %d..%d exceeds %d", ErrTooManyValues, src.Start, src.End, limit)
	}
	return numbers(Simple(src.Start, src.End, src.Step)), nil
}

func numbers(nums []int) []domain.RenderValue {
	out := make([]domain.RenderValue, len(nums))
	for i, n := range nums {
		out[i] = domain.NumberValue(n)
	}
	return out
}
