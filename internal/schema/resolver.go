// Package schema identifies canonical columns in loosely-schemaed tabular
// results. Analytical queries are free to name their columns anything, so
// each semantic field is resolved by an ordered list of matching strategies
// that degrade from exact preferred names to substring heuristics.
package schema

import "strings"

// Strategy matches a column name for one semantic field.
type Strategy interface {
	Name() string
	Match(columns []string) (string, bool)
}

// Exact returns the first preferred name literally present among columns.
type Exact struct {
	Preferred []string
}

func (s Exact) Name() string { return "exact-preferred" }

func (s Exact) Match(columns []string) (string, bool) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	for _, name := range s.Preferred {
		if _, ok := present[name]; ok {
			return name, true
		}
	}
	return "", false
}

// Substring matches columns whose lowercase name contains every term. When
// several columns match, the shortest name wins; shorter names are assumed
// to be the canonical, least-derived column.
type Substring struct {
	Terms []string
}

func (s Substring) Name() string { return "substring-all" }

func (s Substring) Match(columns []string) (string, bool) {
	best := ""
	for _, col := range columns {
		lowered := strings.ToLower(col)
		all := true
		for _, term := range s.Terms {
			if !strings.Contains(lowered, strings.ToLower(term)) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		if best == "" || len(col) < len(best) {
			best = col
		}
	}
	return best, best != ""
}

// dateFallback matches any column whose lowercase name contains "date" or
// ends with "day".
type dateFallback struct{}

func (dateFallback) Name() string { return "date-fallback" }

func (dateFallback) Match(columns []string) (string, bool) {
	for _, col := range columns {
		lowered := strings.ToLower(col)
		if strings.Contains(lowered, "date") || strings.HasSuffix(lowered, "day") {
			return col, true
		}
	}
	return "", false
}

// Resolver applies its strategies in order and returns the first match.
type Resolver struct {
	Strategies []Strategy
}

// Resolve returns the matched column name, or false when no strategy
// matched.
func (r Resolver) Resolve(columns []string) (string, bool) {
	for _, s := range r.Strategies {
		if col, ok := s.Match(columns); ok {
			return col, true
		}
	}
	return "", false
}

// DateResolver resolves the date column.
func DateResolver() Resolver {
	return Resolver{Strategies: []Strategy{
		Exact{Preferred: []string{"date", "day", "dt", "timestamp", "block_date"}},
		dateFallback{},
	}}
}

// SupplyResolver resolves the supply rate column.
func SupplyResolver() Resolver {
	return Resolver{Strategies: []Strategy{
		Exact{Preferred: []string{"aave_supply_apy", "supply_apy", "supply_apr", "supply_rate", "supply"}},
		Substring{Terms: []string{"supply"}},
	}}
}

// BorrowResolver resolves the borrow rate column. Some queries expose the
// variable borrow rate under a "variable" name with no "borrow" in it, so a
// secondary preference list covers that case.
func BorrowResolver() Resolver {
	return Resolver{Strategies: []Strategy{
		Exact{Preferred: []string{
			"aave_borrow_apy", "borrow_apy", "borrow_apr", "borrow_rate",
			"avg_variableRate", "variable_rate", "variable", "borrow",
		}},
		Substring{Terms: []string{"borrow"}},
		Exact{Preferred: []string{"avg_variableRate", "variable_rate", "variable"}},
		Substring{Terms: []string{"variable"}},
	}}
}
