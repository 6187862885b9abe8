package scopeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches a name optionally followed by a numeric index, e.g. `cells[2]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_-]*)(?:\[(\d+)\])?$`)

// Parse converts a dotted scope path into an Address.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("scope path cannot be empty")
	}

	var addr Address
	for _, segmentStr := range strings.Split(raw, ".") {
		if segmentStr == "" {
			return Address{}, fmt.Errorf("scope path %q contains an empty segment", raw)
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return Address{}, fmt.Errorf("invalid scope path segment %q", segmentStr)
		}

		segment := NewSegment(matches[1])
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				return Address{}, fmt.Errorf("invalid index in segment %q: %w", segmentStr, err)
			}
			segment.Index = index
		}
		addr.Path = append(addr.Path, segment)
	}

	return addr, nil
}
