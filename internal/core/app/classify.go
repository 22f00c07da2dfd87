package app

import "github.com/denchenko/mtng/internal/core/domain"

// Classify sets the derived flags of an item from the repository labels.
// Drafts count as work in progress for pull requests only.
func Classify(item *domain.Item, spec *domain.RepoSpec) {
	item.IsWIP = item.HasLabel(spec.WIPLabel) || (item.IsPullRequest() && item.Draft)
	item.IsStale = item.HasLabel(spec.StaleLabel)
}

func withoutWIP(items []*domain.Item) []*domain.Item {
	return filter(items, func(item *domain.Item) bool {
		return !item.IsWIP
	})
}

func withoutFiltered(items []*domain.Item, filterLabels []string) []*domain.Item {
	if len(filterLabels) == 0 {
		return items
	}

	return filter(items, func(item *domain.Item) bool {
		return !item.HasAnyLabel(filterLabels)
	})
}

type itemKey struct {
	kind   domain.ItemKind
	number int
}

// dedupe drops repeated items, keeping the first occurrence. Kinds are kept
// apart since some providers number issues and merge requests separately.
func dedupe(items []*domain.Item) []*domain.Item {
	seen := make(map[itemKey]struct{}, len(items))

	return filter(items, func(item *domain.Item) bool {
		key := itemKey{kind: item.Kind, number: item.Number}
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}

		return true
	})
}

func filter(items []*domain.Item, keep func(*domain.Item) bool) []*domain.Item {
	result := make([]*domain.Item, 0, len(items))
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}

	return result
}
