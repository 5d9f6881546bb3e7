package domain

import (
	"strconv"
)

// Value is a single feature value returned by an extractor.
// It is one of Number, Text or FeatureMap.
type Value interface {
	isValue()
}

// Number is a numeric scalar feature.
type Number float64

// Text is a string scalar feature (diagnostics, versions, tuples).
type Text string

// FeatureMap is an image-valued feature: each voxel holds a locally computed value.
type FeatureMap struct {
	Volume *Volume
}

func (Number) isValue()     {}
func (Text) isValue()       {}
func (FeatureMap) isValue() {}

// String formats the number with the shortest representation that round-trips.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func (t Text) String() string { return string(t) }

// IsScalar reports whether v is stored in a record rather than written to disk.
func IsScalar(v Value) bool {
	switch v.(type) {
	case Number, Text:
		return true
	default:
		return false
	}
}

// Entry is a named feature value.
type Entry struct {
	Name  string
	Value Value
}

// Result is the ordered output of one extraction call.
type Result []Entry

// Get returns the value stored under name.
func (r Result) Get(name string) (Value, bool) {
	for _, e := range r {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Names returns the feature names in result order.
func (r Result) Names() []string {
	names := make([]string, len(r))
	for i, e := range r {
		names[i] = e.Name
	}
	return names
}
