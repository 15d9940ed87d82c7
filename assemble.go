package courier

import (
	"sort"
	"strings"

	"github.com/rbaliyan/courier/mail"
)

// assembleParts merges explicit and discovered parts and sorts them by
// content type. Explicit parts come first in the combined sequence, so
// on ties the stable sort keeps them ahead of discovered parts.
//
// The base comparison ranks parts listed in order by their position,
// parts not listed sorting after listed ones, and two unlisted parts by
// case-insensitive content type. The final ordering is the inverse of
// that ranking: the highest-priority type ends up last, where mail
// clients pick the preferred alternative.
func assembleParts(explicit, discovered []*mail.Part, order []string) []*mail.Part {
	parts := make([]*mail.Part, 0, len(explicit)+len(discovered))
	parts = append(parts, explicit...)
	parts = append(parts, discovered...)
	if len(parts) < 2 {
		return parts
	}

	rank := make(map[string]int, len(order))
	for i, ct := range order {
		ct = strings.ToLower(ct)
		if _, ok := rank[ct]; !ok {
			rank[ct] = i
		}
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return partLess(parts[j], parts[i], rank)
	})
	return parts
}

// partLess reports whether a ranks before b under the priority order.
func partLess(a, b *mail.Part, rank map[string]int) bool {
	act := strings.ToLower(partContentType(a))
	bct := strings.ToLower(partContentType(b))
	ai, aok := rank[act]
	bi, bok := rank[bct]
	switch {
	case aok && bok:
		return ai < bi
	case aok:
		return true
	case bok:
		return false
	default:
		return act < bct
	}
}

func partContentType(p *mail.Part) string {
	if p.Message != nil {
		return p.Message.ContentType
	}
	return p.ContentType
}
