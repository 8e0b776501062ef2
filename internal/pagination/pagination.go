package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type Params struct {
	Page   int
	Limit  int
	Offset int
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type Envelope[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// FromQuery reads page and limit from the query string. Only the leading
// integer of a value counts ("2.5" is 2); values without one fall back to the
// defaults. Both are floored at 1, limit is capped at MaxLimit and page is
// capped so the offset fits in an int.
func FromQuery(q url.Values) Params {
	limit := min(max(intOr(q.Get("limit"), DefaultLimit), 1), MaxLimit)
	page := min(max(intOr(q.Get("page"), DefaultPage), 1), math.MaxInt/limit+1)

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func NewEnvelope[T any](items []T, p Params, total int64) Envelope[T] {
	if items == nil {
		items = []T{}
	}

	limit := int64(max(p.Limit, 1))

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return Envelope[T]{
		Data: items,
		Meta: Meta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: int(totalPages),
		},
	}
}

// intOr parses the leading integer of s, after optional spaces and a sign.
// Values past the int range saturate.
func intOr(s string, def int) int {
	s = strings.TrimLeft(s, " \t\n\r")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}

	v, err := strconv.Atoi(s[:end])
	if err != nil {
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	return v
}
