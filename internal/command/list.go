package command

import (
	"slices"
	"strconv"
	"strings"
)

// ListQuery holds the arguments of /list.
type ListQuery struct {
	// Masks is nil when no mask was given.
	Masks []string

	Min, Max       int
	HasMin, HasMax bool
}

// ParseListQuery parses "[mask[,mask...]] [-MIN n] [-MAX n]". A first word
// starting with "-" is not a mask. Bounds with a non-numeric value are ignored.
func ParseListQuery(content string) ListQuery {
	var q ListQuery

	fields := strings.Fields(content)
	if len(fields) > 0 && !strings.HasPrefix(fields[0], "-") {
		for _, mask := range strings.Split(fields[0], ",") {
			if mask != "" {
				q.Masks = append(q.Masks, mask)
			}
		}
	}

	for i := 0; i+1 < len(fields); i++ {
		switch {
		case strings.EqualFold(fields[i], "-MIN"):
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				q.Min, q.HasMin = n, true
				i++
			}
		case strings.EqualFold(fields[i], "-MAX"):
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				q.Max, q.HasMax = n, true
				i++
			}
		}
	}

	return q
}

// Apply keeps the channels inside the user-count bounds and sorts them by
// visible user count, largest first. Equal counts keep their order.
func (q ListQuery) Apply(channels []ChannelInfo) []ChannelInfo {
	out := make([]ChannelInfo, 0, len(channels))
	for _, ch := range channels {
		if q.HasMin && ch.VisibleUserCount < q.Min {
			continue
		}
		if q.HasMax && ch.VisibleUserCount > q.Max {
			continue
		}
		out = append(out, ch)
	}

	slices.SortStableFunc(out, func(a, b ChannelInfo) int {
		return b.VisibleUserCount - a.VisibleUserCount
	})
	return out
}
