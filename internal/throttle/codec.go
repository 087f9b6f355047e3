package throttle

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// EncodeValue stores n as base64 of its decimal form.
//
// This hides the value from a casual glance at storage and nothing more.
// Anyone can decode or delete it; server-side rate limiting is the real
// control against password guessing.
func EncodeValue(n int64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(n, 10)))
}

// DecodeValue reverses EncodeValue. Anything that does not decode to a
// non-negative integer (tampering, truncation, garbage) is 0.
func DecodeValue(s string) int64 {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
