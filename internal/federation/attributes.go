package federation

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pilab-dev/shadow-login/domain"
)

// Attributes is the raw attribute set a provider returned for a login.
// Values are strings, numbers, booleans or nil.
type Attributes map[string]any

// String returns the attribute stringified, or nil when absent or null.
func (a Attributes) String(key string) *string {
	if a == nil {
		return nil
	}

	return Stringify(a[key])
}

// FirstNonBlank returns the first of keys whose stringified value is not blank.
func (a Attributes) FirstNonBlank(keys ...string) *string {
	candidates := make([]*string, 0, len(keys))
	for _, k := range keys {
		candidates = append(candidates, a.String(k))
	}

	return domain.FirstNonBlank(candidates...)
}

// Stringify converts an attribute value to its string form. Numbers never use
// exponent notation, so a numeric GitHub id 12345 becomes "12345".
func Stringify(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case *string:
		if t == nil {
			return nil
		}
		s = *t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		s = strconv.Itoa(t)
	case int32:
		s = strconv.FormatInt(int64(t), 10)
	case int64:
		s = strconv.FormatInt(t, 10)
	case uint:
		s = strconv.FormatUint(uint64(t), 10)
	case uint32:
		s = strconv.FormatUint(uint64(t), 10)
	case uint64:
		s = strconv.FormatUint(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}

	return &s
}
