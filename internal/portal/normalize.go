// File: internal/portal/normalize.go
package portal

import "strings"

// CompositeRule splits one composite source field into two derived fields.
// The source field is retained alongside the derived pair.
type CompositeRule struct {
	Source string
	First  string
	Second string
	// TrimSecondToken keeps only the first whitespace-separated token of the
	// second part. The BIN page appends trailing text after the state code.
	TrimSecondToken bool
}

// Composite field layouts per query type.
var (
	chassisComposites = []CompositeRule{
		{Source: "plate_state", First: "plate", Second: "state"},
	}

	binComposites = []CompositeRule{
		{Source: "plate_state", First: "plate", Second: "state", TrimSecondToken: true},
		{Source: "manufacture_model_year", First: "model_year", Second: "manufacture_year"},
	}

	vehiclesComposites = []CompositeRule{
		{Source: "plate_state", First: "plate", Second: "state"},
	}
)

// Normalize derives split fields from composite sources. The input record is
// never mutated; the result is a new record holding both the originals and
// the derived fields. A composite source present without its '/' separator is
// a data-shape violation inherited from the portal and fails extraction.
//
// Normalize is idempotent: re-applying it to its own output yields an equal
// record.
func Normalize(rec Record, rules []CompositeRule) (Record, error) {
	out := rec.Clone()

	for _, rule := range rules {
		raw, ok := rec[rule.Source]
		if !ok {
			continue
		}
		if raw == nil || !strings.Contains(*raw, "/") {
			return nil, malformedComposite(rule.Source)
		}

		parts := strings.SplitN(*raw, "/", 2)
		first := strings.TrimSpace(parts[0])
		second := strings.TrimSpace(parts[1])
		if rule.TrimSecondToken {
			if fields := strings.Fields(second); len(fields) > 0 {
				second = fields[0]
			}
		}

		out.Set(rule.First, first)
		out.Set(rule.Second, second)
	}

	return out, nil
}

// NormalizeAll applies Normalize to every record of a listing.
func NormalizeAll(recs []Record, rules []CompositeRule) ([]Record, error) {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		normalized, err := Normalize(rec, rules)
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}
	return out, nil
}
