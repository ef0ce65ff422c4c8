package inputfilter

import (
	"github.com/google/uuid"

	"github.com/hupe1980/inputfilter/internal/maputil"
)

// InputFilter is an insertion-ordered, name-keyed collection of entries.
// Like Input it carries the data of the last SetData call and is not safe
// for concurrent validation.
type InputFilter struct {
	id      string
	entries []namedEntry
	index   map[string]int

	data    map[string]any
	valid   []string
	invalid []string
}

type namedEntry struct {
	name  string
	entry Entry
}

// New creates an empty input filter with a fresh build ID.
func New() *InputFilter {
	return &InputFilter{
		id:    uuid.NewString(),
		index: make(map[string]int),
	}
}

func (*InputFilter) isEntry() {}

// ID returns the build ID used to correlate log lines of one build.
func (f *InputFilter) ID() string { return f.id }

// Add stores e under name. Adding an existing name replaces the entry in
// place, so the position of the first insertion is kept.
func (f *InputFilter) Add(name string, e Entry) {
	if i, ok := f.index[name]; ok {
		f.entries[i].entry = e
		return
	}

	f.index[name] = len(f.entries)
	f.entries = append(f.entries, namedEntry{name: name, entry: e})
}

// Has reports whether an entry named name exists.
func (f *InputFilter) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Get returns the entry named name.
func (f *InputFilter) Get(name string) (Entry, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}

	return f.entries[i].entry, true
}

// Input returns the leaf entry named name.
func (f *InputFilter) Input(name string) (*Input, bool) {
	e, _ := f.Get(name)
	in, ok := e.(*Input)

	return in, ok
}

// InputFilter returns the nested input filter named name.
func (f *InputFilter) InputFilter(name string) (*InputFilter, bool) {
	e, _ := f.Get(name)
	nested, ok := e.(*InputFilter)

	return nested, ok
}

// Names returns the entry names in insertion order.
func (f *InputFilter) Names() []string {
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.name
	}

	return out
}

// Len returns the number of entries.
func (f *InputFilter) Len() int { return len(f.entries) }

// ---------------------------------------------------------------------------
// Runtime
// ---------------------------------------------------------------------------

// SetData distributes data over the entries. Missing keys clear the value of
// an input; nested input filters receive the nested mapping, or an empty one
// when the key is missing or not a mapping.
func (f *InputFilter) SetData(data map[string]any) {
	f.data = data
	f.valid, f.invalid = nil, nil

	for _, e := range f.entries {
		v, ok := data[e.name]

		switch entry := e.entry.(type) {
		case *Input:
			if ok {
				entry.SetValue(v)
			} else {
				entry.ClearValue()
			}
		case *InputFilter:
			nested, _ := maputil.ToPlain(v).(map[string]any)
			entry.SetData(nested)
		}
	}
}

// IsValid validates every entry in order. An invalid input flagged with
// break_on_failure stops validation of the remaining entries.
func (f *InputFilter) IsValid() bool {
	f.valid, f.invalid = nil, nil

	for _, e := range f.entries {
		var ok, stop bool

		switch entry := e.entry.(type) {
		case *Input:
			ok = entry.IsValid(f.data)
			stop = !ok && entry.BreakOnFailure()
		case *InputFilter:
			ok = entry.IsValid()
		}

		if ok {
			f.valid = append(f.valid, e.name)
		} else {
			f.invalid = append(f.invalid, e.name)
		}

		if stop {
			break
		}
	}

	return len(f.invalid) == 0
}

// ValidInputs returns the names of the entries that passed the last IsValid
// call.
func (f *InputFilter) ValidInputs() []string { return append([]string(nil), f.valid...) }

// InvalidInputs returns the names of the entries that failed the last
// IsValid call.
func (f *InputFilter) InvalidInputs() []string { return append([]string(nil), f.invalid...) }

// Values returns the filtered values of all entries. Inputs without a value
// map to nil.
func (f *InputFilter) Values() (map[string]any, error) {
	out := make(map[string]any, len(f.entries))

	for _, e := range f.entries {
		switch entry := e.entry.(type) {
		case *Input:
			if !entry.HasValue() && !entry.fallbackApplied {
				out[e.name] = nil
				continue
			}

			v, err := entry.Value()
			if err != nil {
				return nil, err
			}

			out[e.name] = v
		case *InputFilter:
			v, err := entry.Values()
			if err != nil {
				return nil, err
			}

			out[e.name] = v
		}
	}

	return out, nil
}

// RawValues returns the unfiltered values of all entries.
func (f *InputFilter) RawValues() map[string]any {
	out := make(map[string]any, len(f.entries))

	for _, e := range f.entries {
		switch entry := e.entry.(type) {
		case *Input:
			out[e.name] = entry.RawValue()
		case *InputFilter:
			out[e.name] = entry.RawValues()
		}
	}

	return out
}

// Messages returns the messages of the entries that failed the last IsValid
// call: a []string per input and a nested map per nested input filter.
func (f *InputFilter) Messages() map[string]any {
	out := make(map[string]any, len(f.invalid))

	for _, name := range f.invalid {
		switch entry := f.entries[f.index[name]].entry.(type) {
		case *Input:
			out[name] = entry.Messages()
		case *InputFilter:
			out[name] = entry.Messages()
		}
	}

	return out
}
