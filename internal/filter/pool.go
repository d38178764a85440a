package filter

import (
	"strings"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/normalize"
)

// MaxPoolSize caps the number of distinct values kept per field.
const MaxPoolSize = 2000

// Pools holds the suggestion values of every field, in first-seen order.
type Pools map[Field][]string

// BuildPools scans contacts in order and collects the distinct values of
// each field, keeping the casing of the first occurrence.
func BuildPools(contacts []contact.Contact) Pools {
	pools := make(Pools, len(Fields))
	for _, f := range Fields {
		seen := make(map[string]struct{})
		var values []string
		for _, c := range contacts {
			if len(values) >= MaxPoolSize {
				break
			}
			v := strings.TrimSpace(Value(c, f))
			key := normalize.String(v)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			values = append(values, v)
		}
		pools[f] = values
	}
	return pools
}
