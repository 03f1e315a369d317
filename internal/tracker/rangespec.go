package tracker

import (
	"strconv"
	"strings"
)

// ParseIDRange parses a session id token: either a single id or an
// inclusive "a-b" range. A dashed range must span at least two ids;
// "5-5" is rejected as an ambiguous range of one, and "6-3" is rejected
// outright. A single id yields a == b.
func ParseIDRange(token string) (int64, int64, error) {
	if first, second, dashed := strings.Cut(token, "-"); dashed {
		a, err := strconv.ParseInt(first, 10, 64)
		if err != nil {
			return 0, 0, Errorf(KindValidation, "Invalid session ID range. Please provide valid integers in the format `start-end`.")
		}
		b, err := strconv.ParseInt(second, 10, 64)
		if err != nil {
			return 0, 0, Errorf(KindValidation, "Invalid session ID range. Please provide valid integers in the format `start-end`.")
		}
		if a >= b {
			return 0, 0, Errorf(KindValidation, "Invalid range")
		}
		return a, b, nil
	}

	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, 0, Errorf(KindValidation, "Invalid session ID. Please provide a valid integer.")
	}
	return id, id, nil
}
