package transform

import (
	"context"

	"github.com/carlosvega/corpusetl/internal/metrics"
	"github.com/carlosvega/corpusetl/pkg/bag"
	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// UniqueFilter runs an inner chain over the outer input and filters
// its output records by first-seen-ness of a derived unique value,
// scoped to a bag key so distinct top-level inputs don't interfere
// with one another (spec.md §4.2). Its bag entry is cleared both
// before and after each outer input so a re-run of the same key path
// starts fresh.
type UniqueFilter struct {
	Bag        *bag.Bag
	BagKeyPath record.KeyPath

	Inner []Transformer

	UniqueKeyPath          record.KeyPath
	UniqueValueNormalizers []func(string) string

	// YieldUniqueValues selects which occurrences survive: true keeps
	// only the first-seen value per key, false keeps only the
	// repeats (every occurrence after the first).
	YieldUniqueValues bool
}

// Transform implements Transformer.
func (uf *UniqueFilter) Transform(ctx context.Context, ictx *InputContext, r record.Record) ([]record.Record, error) {
	bagKeyVal, ok := resolveInput(r, uf.BagKeyPath)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.unique_filter", "resolve_bag_key",
			"bag_key_path absent", true)
	}
	bagKey, ok := bagKeyVal.(string)
	if !ok {
		return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.unique_filter", "resolve_bag_key",
			"bag_key_path value is not a string", true)
	}

	uf.Bag.Clear(bagKey)
	defer uf.Bag.Clear(bagKey)

	outs, err := FlatMapApply(ctx, ictx, uf.Inner, r)
	if err != nil {
		return nil, err
	}

	var results []record.Record
	for _, o := range outs {
		v, ok := record.DeepGet(o, uf.UniqueKeyPath)
		if !ok {
			return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.unique_filter", "resolve_unique_key",
				"unique_key_path absent", true)
		}
		s, ok := v.(string)
		if !ok {
			return nil, etlerr.New(etlerr.CodeSchemaViolation, "transform.unique_filter", "resolve_unique_key",
				"unique_key_path value is not a string", true)
		}

		for _, norm := range uf.UniqueValueNormalizers {
			s = norm(s)
		}

		firstSeen := uf.Bag.AddIfAbsent(bagKey, s)
		if !firstSeen {
			metrics.RecordDuplicated(bagKey)
		}
		if uf.YieldUniqueValues == firstSeen {
			results = append(results, o)
		}
	}

	return results, nil
}
