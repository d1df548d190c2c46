package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fracsim-lab/growth-core/internal/geom"
)

// Clone returns a copy of the scenario
func (s Scenario) Clone() Scenario {
	c := make(Scenario, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Signature returns a canonical string form of the scenario, usable as a
// cache key to avoid re-running an already-evaluated candidate
func (s Scenario) Signature() string {
	keys := make([]geom.TipKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Fracture != keys[j].Fracture {
			return keys[i].Fracture < keys[j].Fracture
		}
		return keys[i].End < keys[j].End
	})
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%.6f;", k, s[k])
	}
	return b.String()
}
