// Package inventory reads and writes the topping inventory CSV format
// described in spec.md §6: one topping per line, main stat first, up to
// three sub-stats, exactly one trailing resonance tag.
//
// No CSV library appears anywhere in the retrieval pack, so this is built
// on the standard library's encoding/csv — documented as a stdlib choice
// with no suitable replacement in DESIGN.md. Toppings are returned as a
// plain slice rather than a map: the optimizer and team driver reference
// inventory items by value, and a stable slice index is all the stability
// spec.md §9's inventory-conservation property needs, matching the
// teacher's habit of keeping stable integer handles for entities
// referenced across search frames (gitrdm-gokando's variable/domain
// tables) rather than reaching for a map keyed on derived identity.
package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/topping"
)

// Read parses a topping inventory CSV from r. Each record is
// <flavor>,<substat>,<value>,<substat>,<value>,...,<resonance> with the
// first (substat, value) pair being the main stat and up to three more
// sub-stat pairs following; the resonance name is always the last field.
// A malformed record refuses the whole load — spec.md §7 requires no
// partial state on a parse error.
func Read(r io.Reader) ([]topping.Topping, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}

	out := make([]topping.Topping, 0, len(records))
	for lineNum, rec := range records {
		t, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("inventory: line %d: %w", lineNum+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseRecord(rec []string) (topping.Topping, error) {
	// flavor, (substat, value) pairs [1..4], resonance
	if len(rec) < 4 || len(rec) > 10 || (len(rec)-2)%2 != 0 {
		return topping.Topping{}, fmt.Errorf("expected flavor, 1-4 substat pairs, resonance; got %d fields", len(rec))
	}

	mainFlavor, err := substat.ParseFlavor(strings.TrimSpace(rec[0]))
	if err != nil {
		return topping.Topping{}, err
	}

	pairCount := (len(rec) - 2) / 2
	stats := make([]topping.Stat, 0, pairCount)
	for i := 0; i < pairCount; i++ {
		flavorField := strings.TrimSpace(rec[1+2*i])
		valueField := strings.TrimSpace(rec[2+2*i])

		f, err := substat.ParseFlavor(flavorField)
		if err != nil {
			return topping.Topping{}, err
		}
		v, err := decimal.NewFromString(valueField)
		if err != nil {
			return topping.Topping{}, fmt.Errorf("substat value %q: %w", valueField, err)
		}
		stats = append(stats, topping.Stat{Flavor: f, Value: v})
	}

	resonanceField := strings.TrimSpace(rec[len(rec)-1])
	resonance, err := substat.ParseResonance(resonanceField)
	if err != nil {
		return topping.Topping{}, err
	}

	t := topping.New(stats[0], stats[1:], resonance)
	if t.Flavor != mainFlavor {
		return topping.Topping{}, fmt.Errorf("leading flavor %q does not match main-stat substat %q", mainFlavor, t.Flavor)
	}
	return t, nil
}

// Write serializes toppings in the same format Read parses, one per line.
func Write(w io.Writer, toppings []topping.Topping) error {
	writer := csv.NewWriter(w)
	for _, t := range toppings {
		rec := make([]string, 0, 2+2*len(t.Stats))
		rec = append(rec, t.Flavor.String())
		for _, s := range t.Stats {
			rec = append(rec, s.Flavor.String(), s.Value.String())
		}
		rec = append(rec, t.Resonance.String())
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("inventory: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
