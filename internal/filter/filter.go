// Package filter implements cascading filters over an incident table.
//
// A Selection constrains any number of dimensions plus an optional date
// range. ComputeOptions derives, for every dimension D, the values still
// present once all constraints except D's own are applied, so choosing a
// value never removes that value from its own option list.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/cvilledata/crimedash/internal/incident"
)

// Selection maps dimensions to the accepted values. A dimension with no
// values is unconstrained ("all").
type Selection struct {
	Values map[incident.Dimension][]string
	// From and To bound the incident date, inclusive, compared by calendar
	// day in the table's location. Zero means unbounded.
	From time.Time
	To   time.Time
}

// With returns a copy of s with d constrained to values. Passing no values
// clears the constraint.
func (s Selection) With(d incident.Dimension, values ...string) Selection {
	out := Selection{Values: make(map[incident.Dimension][]string, len(s.Values)+1), From: s.From, To: s.To}
	for k, v := range s.Values {
		out.Values[k] = v
	}
	if len(values) == 0 {
		delete(out.Values, d)
	} else {
		out.Values[d] = append([]string(nil), values...)
	}
	return out
}

// IsEmpty reports whether the selection constrains nothing.
func (s Selection) IsEmpty() bool {
	if !s.From.IsZero() || !s.To.IsZero() {
		return false
	}
	for _, v := range s.Values {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// Options holds the selectable values per dimension.
type Options map[incident.Dimension][]string

// Apply returns the rows matching every constraint. An empty selection
// returns t itself.
func Apply(t *incident.Table, sel Selection) *incident.Table {
	if sel.IsEmpty() {
		return t
	}
	m := compile(sel)
	return t.Subset(m.match)
}

// ComputeOptions returns, for each dimension, the sorted distinct values
// found after applying every constraint except that dimension's own.
// A combination that matches nothing yields empty lists, not an error.
func ComputeOptions(t *incident.Table, sel Selection) Options {
	m := compile(sel)
	seen := make(map[incident.Dimension]map[string]struct{}, len(incident.Dimensions))
	for _, d := range incident.Dimensions {
		seen[d] = map[string]struct{}{}
	}
	for i := range t.Records {
		r := &t.Records[i]
		if !m.inRange(r.Time) {
			continue
		}
		failed, failures := m.failures(r)
		if failures > 1 {
			continue
		}
		for _, d := range incident.Dimensions {
			// With exactly one failing dimension the row only counts
			// toward that dimension's own options.
			if failures == 1 && failed != d {
				continue
			}
			seen[d][r.Value(d)] = struct{}{}
		}
	}
	out := make(Options, len(seen))
	for d, set := range seen {
		out[d] = sortValues(d, set)
	}
	return out
}

type matcher struct {
	accept   map[incident.Dimension]map[string]struct{}
	from, to int
}

func compile(sel Selection) matcher {
	m := matcher{accept: map[incident.Dimension]map[string]struct{}{}}
	for d, values := range sel.Values {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[foldKey(v)] = struct{}{}
		}
		m.accept[d] = set
	}
	if !sel.From.IsZero() {
		m.from = dayKey(sel.From)
	}
	if !sel.To.IsZero() {
		m.to = dayKey(sel.To)
	}
	return m
}

func (m matcher) inRange(ts time.Time) bool {
	k := dayKey(ts)
	if m.from != 0 && k < m.from {
		return false
	}
	if m.to != 0 && k > m.to {
		return false
	}
	return true
}

// match reports whether r satisfies every constraint.
func (m matcher) match(r *incident.Record) bool {
	if !m.inRange(r.Time) {
		return false
	}
	for d, set := range m.accept {
		if _, ok := set[foldKey(r.Value(d))]; !ok {
			return false
		}
	}
	return true
}

// failures counts the dimension constraints r violates, stopping at two.
func (m matcher) failures(r *incident.Record) (failed incident.Dimension, n int) {
	for d, set := range m.accept {
		if _, ok := set[foldKey(r.Value(d))]; !ok {
			failed = d
			n++
			if n > 1 {
				return failed, n
			}
		}
	}
	return failed, n
}

func dayKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// foldKey makes matching insensitive to case and surrounding whitespace,
// mirroring the normalization applied at load time.
func foldKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// sortValues orders derived dimensions naturally and the rest alphabetically.
func sortValues(d incident.Dimension, set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	if order := incident.NaturalOrder(d); order != nil {
		for _, v := range order {
			if _, ok := set[v]; ok {
				out = append(out, v)
			}
		}
		return out
	}
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
