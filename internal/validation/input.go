package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedJSON is returned when a request body is not a JSON object.
var ErrMalformedJSON = errors.New("malformed JSON body")

// Input is a decoded request body keyed by field name. Values stay raw so
// that type problems can be reported per field.
type Input map[string]json.RawMessage

// ParseInput decodes a JSON object body.
func ParseInput(body []byte) (Input, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedJSON
	}
	var in Input
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return nil, ErrMalformedJSON
	}
	if in == nil {
		in = Input{}
	}
	return in, nil
}

// With returns a copy of the input with field set to the JSON encoding of value.
func (in Input) With(field string, value interface{}) Input {
	out := make(Input, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	raw, _ := json.Marshal(value)
	out[field] = raw
	return out
}

func (in Input) unexpected(allowed map[string]bool) []string {
	extra := []string{}
	for field := range in {
		if !allowed[field] {
			extra = append(extra, field)
		}
	}
	sort.Strings(extra)
	return extra
}

const (
	msgNull          = "This field may not be null."
	msgInvalidString = "Not a valid string."
	msgInvalidNumber = "A valid number is required."
	msgInvalidInt    = "A valid integer is required."
)

var errFieldType = errors.New("invalid field type")

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// decodeString accepts JSON strings and numbers, trimming surrounding whitespace.
func decodeString(raw json.RawMessage) (string, string) {
	if isNull(raw) {
		return "", msgNull
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), ""
	}
	return "", msgInvalidString
}

func decodeNumber(raw json.RawMessage) (float64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errFieldType
		}
		n = json.Number(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errFieldType
	}
	return f, nil
}

// decodeFloat accepts JSON numbers and numeric strings.
func decodeFloat(raw json.RawMessage) (float64, string) {
	if isNull(raw) {
		return 0, msgNull
	}
	f, err := decodeNumber(raw)
	if err != nil {
		return 0, msgInvalidNumber
	}
	return f, ""
}

var trailingZeros = regexp.MustCompile(`\.0*$`)

// decodeInt accepts integral JSON numbers and numeric strings; 5.0 is 5.
func decodeInt(raw json.RawMessage) (int, string) {
	if isNull(raw) {
		return 0, msgNull
	}
	var text string
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		text = n.String()
	} else if err := json.Unmarshal(raw, &text); err != nil {
		return 0, msgInvalidInt
	}
	text = trailingZeros.ReplaceAllString(strings.TrimSpace(text), "")
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, msgInvalidInt
	}
	return v, ""
}
