// Package mvaluetype defines the typed value union that flows through
// decision-graph pins.
package mvaluetype

import "fmt"

// Kind identifies which variant of ValueType a pin carries.
type Kind string

const (
	KindExecution   Kind = "execution"
	KindBoolean     Kind = "boolean"
	KindInteger     Kind = "integer"
	KindFloat       Kind = "float"
	KindString      Kind = "string"
	KindEnum        Kind = "enum"
	KindEnumWithIDs Kind = "enum_with_ids"
	KindCauseReason Kind = "cause_reason"
	KindObject      Kind = "object"
	KindAny         Kind = "any"
)

// EnumOption is a (id, label) pair for EnumWithIDs pins, e.g. CauseReason.
type EnumOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ValueType is a tagged union describing what a pin accepts or produces.
// Enum and EnumWithIDs carry their allowed value set; every other kind is
// a bare tag.
type ValueType struct {
	Kind    Kind         `json:"type"`
	Values  []string     `json:"values,omitempty"`  // Enum
	Options []EnumOption `json:"options,omitempty"` // EnumWithIDs, CauseReason
}

func Execution() ValueType   { return ValueType{Kind: KindExecution} }
func Boolean() ValueType     { return ValueType{Kind: KindBoolean} }
func Integer() ValueType     { return ValueType{Kind: KindInteger} }
func Float() ValueType       { return ValueType{Kind: KindFloat} }
func StringT() ValueType     { return ValueType{Kind: KindString} }
func Object() ValueType      { return ValueType{Kind: KindObject} }
func Any() ValueType         { return ValueType{Kind: KindAny} }
func CauseReason() ValueType { return ValueType{Kind: KindCauseReason} }

func Enum(values ...string) ValueType {
	return ValueType{Kind: KindEnum, Values: values}
}

func EnumWithIDs(options ...EnumOption) ValueType {
	return ValueType{Kind: KindEnumWithIDs, Options: options}
}

// Unifies reports whether a value of type other may be connected to a pin
// declared as t. Object is a top type compatible with anything. Any
// unifies with any non-Execution, non-CauseReason type; a pin that needs
// to narrow its Any further (e.g. EvaluateNumber's A/B pins accepting
// only Float and Integer) does so via mnode.NodePin.AllowedKinds, checked
// by graph.Compile alongside Unifies, not here. Enum
// and EnumWithIDs unify only against a set-equal (order-insensitive)
// value set, since a wire between two differently-labeled dropdowns
// would silently misrepresent values at runtime. Execution and
// CauseReason never unify with anything but their own kind, even Any;
// two CauseReason types unify whatever their option lists hold.
func (t ValueType) Unifies(other ValueType) bool {
	if t.Kind == KindExecution || other.Kind == KindExecution {
		return t.Kind == other.Kind
	}
	if t.Kind == KindObject || other.Kind == KindObject {
		return true
	}
	if t.Kind == KindAny || other.Kind == KindAny {
		if t.Kind == KindCauseReason || other.Kind == KindCauseReason {
			return t.Kind == other.Kind
		}
		return true
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindEnum:
		return sameStringSet(t.Values, other.Values)
	case KindEnumWithIDs:
		return sameOptionSet(t.Options, other.Options)
	default:
		return true
	}
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		if seen[v] == 0 {
			return false
		}
		seen[v]--
	}
	return true
}

func sameOptionSet(a, b []EnumOption) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[EnumOption]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		if seen[v] == 0 {
			return false
		}
		seen[v]--
	}
	return true
}

func (t ValueType) String() string {
	switch t.Kind {
	case KindEnum:
		return fmt.Sprintf("enum%v", t.Values)
	case KindEnumWithIDs:
		return fmt.Sprintf("enum_with_ids%v", t.Options)
	default:
		return string(t.Kind)
	}
}
