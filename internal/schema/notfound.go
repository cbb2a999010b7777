package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const maxSuggestions = 3

// NotFoundError reports a focus request for a name with no anchor
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("module %q not found", e.Name)
	}
	return fmt.Sprintf("module %q not found (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// suggest returns the anchors closest to anchor by edit distance, also
// counting anchors that contain it
func suggest(anchor string, anchors []string) []string {
	if anchor == "" {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	limit := len(anchor) / 3
	if limit < 2 {
		limit = 2
	}

	var candidates []scored
	for _, a := range anchors {
		d := levenshtein.ComputeDistance(anchor, a)
		if strings.Contains(a, anchor) {
			d = 1
		}
		if d <= limit {
			candidates = append(candidates, scored{a, d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})

	var out []string
	for i := 0; i < len(candidates) && i < maxSuggestions; i++ {
		out = append(out, candidates[i].name)
	}
	return out
}
