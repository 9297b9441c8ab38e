package job

import (
	"strconv"
	"strings"
)

// CoerceIteration converts a raw iteration count. Anything that is not a
// positive base-10 integer yields (1, false) so the run still proceeds once.
func CoerceIteration(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1, false
	}
	return n, true
}
