package optimize

import (
	"sort"

	"pyrs/ast"
)

// Flags is the set of optimizations applied to a single function.
type Flags struct {
	Memoize  bool
	Parallel bool
}

// Decision records whether an optimization was applied and why.
type Decision struct {
	Enabled bool
	Reason  string
}

// Entry is the analysis result for a single function.
type Entry struct {
	Name string

	// The structural facts the decisions were based on.
	SelfRecursive bool
	Pure          bool

	Memoize  Decision
	Parallel Decision
}

// Flags returns the applied optimizations of the entry.
func (e Entry) Flags() Flags {
	return Flags{Memoize: e.Memoize.Enabled, Parallel: e.Parallel.Enabled}
}

// Profile maps function names to their analysis results.  A profile is built
// once before lowering and never modified afterwards.
type Profile struct {
	entries map[string]Entry
	order   []string
}

func newProfile() *Profile {
	return &Profile{entries: make(map[string]Entry)}
}

func (p *Profile) add(entry Entry) {
	if _, ok := p.entries[entry.Name]; !ok {
		p.order = append(p.order, entry.Name)
	}

	p.entries[entry.Name] = entry
}

// Lookup returns the entry of the named function.  Functions without an entry
// have every flag disabled.
func (p *Profile) Lookup(name string) (Entry, bool) {
	if p == nil {
		return Entry{Name: name}, false
	}

	entry, ok := p.entries[name]
	if !ok {
		return Entry{Name: name}, false
	}

	return entry, true
}

// Flags returns the applied optimizations of the named function.
func (p *Profile) Flags(name string) Flags {
	entry, _ := p.Lookup(name)
	return entry.Flags()
}

// Entries returns every entry of the profile in function declaration order.
func (p *Profile) Entries() []Entry {
	entries := make([]Entry, len(p.order))
	for i, name := range p.order {
		entries[i] = p.entries[name]
	}

	return entries
}

// -----------------------------------------------------------------------------

// Request is a caller-supplied optimization request for one function.  A nil
// field expresses no preference.
type Request struct {
	Memoize  *bool
	Parallel *bool
}

// Supplied is an externally supplied optimization profile keyed by function
// name: eg. from source decorators, the project file, or the command line.
type Supplied map[string]Request

// Merge returns a new supplied profile in which every field set in override
// replaces the corresponding field of s.  Neither input is modified.
func (s Supplied) Merge(override Supplied) Supplied {
	merged := make(Supplied, len(s)+len(override))
	for name, req := range s {
		merged[name] = req
	}

	for name, req := range override {
		base := merged[name]

		if req.Memoize != nil {
			base.Memoize = req.Memoize
		}

		if req.Parallel != nil {
			base.Parallel = req.Parallel
		}

		merged[name] = base
	}

	return merged
}

// Names returns the function names of the supplied profile in sorted order.
func (s Supplied) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// memoDecorators are the decorator names that request memoization.
var memoDecorators = map[string]struct{}{
	"memoize":             {},
	"cache":               {},
	"lru_cache":           {},
	"functools.cache":     {},
	"functools.lru_cache": {},
}

// DecoratorProfile builds a supplied profile from the decorators of the
// unit's functions: `@parallel` requests parallelism and `@memoize` (or one of
// the caching decorators of the source standard library) requests
// memoization.
func DecoratorProfile(unit *ast.SourceUnit) Supplied {
	supplied := make(Supplied)

	for _, fd := range unit.Funcs() {
		var req Request
		for _, dec := range fd.Decorators {
			if dec.Name == "parallel" {
				req.Parallel = boolPtr(true)
			} else if _, ok := memoDecorators[dec.Name]; ok {
				req.Memoize = boolPtr(true)
			}
		}

		if req.Memoize != nil || req.Parallel != nil {
			supplied[fd.Name] = req
		}
	}

	return supplied
}

func boolPtr(b bool) *bool {
	return &b
}
