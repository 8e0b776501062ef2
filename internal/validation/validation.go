package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vishalpmittal/dratavlibrary/internal/model"
)

const InvalidPayload = "Invalid payload"

type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

var errNotObject = errors.New("request body must be a JSON object")

// Payload is a request body as the client sent it. A nil Payload means the
// body was empty or JSON null.
type Payload map[string]any

func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Payload) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Integer reports the value under key when it is a JSON number without a
// fractional part.
func (p Payload) Integer(key string) (int, bool) {
	return asInteger(p[key])
}

func (p Payload) Object(key string) (Payload, bool) {
	m, ok := p[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return Payload(m), true
}

func DecodePayload(raw []byte) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	switch body := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return Payload(body), nil
	default:
		return nil, errNotObject
	}
}

// BindPayload reads the request body into a Payload. On malformed input it
// aborts the request with 400 and returns false.
func BindPayload(c *gin.Context) (Payload, bool) {
	raw, err := c.GetRawData()
	if err == nil {
		var p Payload
		p, err = DecodePayload(raw)
		if err == nil {
			return p, true
		}
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   InvalidPayload,
		Code:    "INVALID_BODY",
		Details: []string{err.Error()},
	})
	return nil, false
}

func ValidateAuthorCreate(body Payload) []string {
	errs := []string{}
	if body == nil {
		return append(errs, "Body is required")
	}
	if !isNonEmptyString(body["firstName"]) {
		errs = append(errs, "firstName is required and must be a non-empty string")
	}
	if !isNonEmptyString(body["lastName"]) {
		errs = append(errs, "lastName is required and must be a non-empty string")
	}
	return errs
}

func ValidateAuthorUpdate(body Payload) []string {
	errs := []string{}
	if body == nil {
		return errs
	}
	if body.Has("firstName") && !isNonEmptyString(body["firstName"]) {
		errs = append(errs, "firstName must be a non-empty string")
	}
	if body.Has("lastName") && !isNonEmptyString(body["lastName"]) {
		errs = append(errs, "lastName must be a non-empty string")
	}
	return errs
}

func ValidateBookCreate(body Payload) []string {
	errs := []string{}
	if body == nil {
		return append(errs, "Body is required")
	}
	if !isNonEmptyString(body["title"]) {
		errs = append(errs, "title is required and must be a non-empty string")
	}
	if !body.Has("pageCount") || !isNonNegativeInteger(body["pageCount"]) {
		errs = append(errs, "pageCount is required and must be a non-negative integer")
	}
	if !isValidDate(body["releaseDate"]) {
		errs = append(errs, "releaseDate must be a valid date string")
	}
	// a falsy author (null, false, "", 0) counts as no author at all
	if truthy(body["author"]) && !isAuthorRef(body["author"]) {
		errs = append(errs, "author must include firstName and lastName as non-empty strings")
	}
	if body["authorId"] != nil && !isInteger(body["authorId"]) {
		errs = append(errs, "authorId must be an integer")
	}
	return errs
}

func ValidateBookUpdate(body Payload) []string {
	errs := []string{}
	if body == nil {
		return errs
	}
	if body.Has("title") && !isNonEmptyString(body["title"]) {
		errs = append(errs, "title must be a non-empty string")
	}
	if body.Has("pageCount") && !isNonNegativeInteger(body["pageCount"]) {
		errs = append(errs, "pageCount must be a non-negative integer")
	}
	if body.Has("releaseDate") && !isValidDate(body["releaseDate"]) {
		errs = append(errs, "releaseDate must be a valid date string")
	}
	if body.Has("author") && !isAuthorRef(body["author"]) {
		errs = append(errs, "author must include firstName and lastName as non-empty strings")
	}
	if body["authorId"] != nil && !isInteger(body["authorId"]) {
		errs = append(errs, "authorId must be an integer")
	}
	return errs
}

// AuthorName extracts the inline author name pair of a payload that passed
// validation.
func AuthorName(body Payload) (first, last string, ok bool) {
	author, ok := body.Object("author")
	if !ok || !isAuthorRef(map[string]any(author)) {
		return "", "", false
	}
	first, _ = author.String("firstName")
	last, _ = author.String("lastName")
	return first, last, true
}

func isNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

func isInteger(v any) bool {
	_, ok := asInteger(v)
	return ok
}

func isNonNegativeInteger(v any) bool {
	n, ok := asInteger(v)
	return ok && n >= 0
}

func asInteger(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		return n, true
	default:
		return 0, false
	}

	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func isValidDate(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	if s == "" {
		return true
	}
	_, err := model.ParseDate(s)
	return err == nil
}

func isAuthorRef(v any) bool {
	author, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return isNonEmptyString(author["firstName"]) && isNonEmptyString(author["lastName"])
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	default:
		return true
	}
}
