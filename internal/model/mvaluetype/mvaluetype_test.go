package mvaluetype_test

import (
	"testing"

	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
)

func TestUnifies_EnumRequiresSetEqualValues(t *testing.T) {
	a := mvaluetype.Enum("Low", "Medium", "High")
	b := mvaluetype.Enum("High", "Medium", "Low")
	if !a.Unifies(b) {
		t.Error("expected two Enums with the same values in a different order to unify")
	}

	c := mvaluetype.Enum("Low", "Medium")
	if a.Unifies(c) {
		t.Error("expected Enums with different value sets not to unify")
	}
}

func TestUnifies_EnumWithIDsRequiresSetEqualOptions(t *testing.T) {
	a := mvaluetype.EnumWithIDs(mvaluetype.EnumOption{ID: "1", Label: "On"}, mvaluetype.EnumOption{ID: "2", Label: "Off"})
	b := mvaluetype.EnumWithIDs(mvaluetype.EnumOption{ID: "2", Label: "Off"}, mvaluetype.EnumOption{ID: "1", Label: "On"})
	if !a.Unifies(b) {
		t.Error("expected two EnumWithIDs with the same options in a different order to unify")
	}

	c := mvaluetype.EnumWithIDs(mvaluetype.EnumOption{ID: "1", Label: "On"}, mvaluetype.EnumOption{ID: "3", Label: "Auto"})
	if a.Unifies(c) {
		t.Error("expected EnumWithIDs with different option sets not to unify")
	}
}

func TestUnifies_CauseReasonIsEnumWithIDsUnderTheHood(t *testing.T) {
	opts := []mvaluetype.EnumOption{{ID: "1", Label: "Manual"}}
	a := mvaluetype.CauseReason()
	b := mvaluetype.ValueType{Kind: mvaluetype.KindCauseReason, Options: opts}
	if !a.Unifies(b) {
		t.Error("expected two CauseReason types to unify regardless of their option lists")
	}
	if a.Unifies(mvaluetype.EnumWithIDs(opts...)) {
		t.Error("CauseReason and EnumWithIDs are distinct kinds and must not unify with each other")
	}
}

func TestUnifies_ExecutionNeverUnifiesWithAnythingElse(t *testing.T) {
	exec := mvaluetype.Execution()
	if exec.Unifies(mvaluetype.Any()) {
		t.Error("Execution must not unify with Any")
	}
	if exec.Unifies(mvaluetype.Object()) {
		t.Error("Execution must not unify with Object")
	}
	if !exec.Unifies(mvaluetype.Execution()) {
		t.Error("Execution must unify with itself")
	}
}

func TestUnifies_ObjectIsATopType(t *testing.T) {
	obj := mvaluetype.Object()
	for _, other := range []mvaluetype.ValueType{
		mvaluetype.Boolean(), mvaluetype.Integer(), mvaluetype.Float(), mvaluetype.StringT(),
		mvaluetype.Enum("A", "B"), mvaluetype.CauseReason(), mvaluetype.Any(),
	} {
		if !obj.Unifies(other) {
			t.Errorf("Object should unify with %v", other)
		}
	}
	// Execution is checked ahead of Object in Unifies, so even the
	// otherwise-universal top type cannot bridge a data pin to a flow pin.
	if obj.Unifies(mvaluetype.Execution()) {
		t.Error("Object must not unify with Execution: flow and data pins stay distinct even against a top type")
	}
}

func TestUnifies_AnyAcceptsAnyNonExecutionNonCauseReasonType(t *testing.T) {
	any_ := mvaluetype.Any()
	for _, other := range []mvaluetype.ValueType{
		mvaluetype.Boolean(), mvaluetype.Integer(), mvaluetype.Float(), mvaluetype.StringT(),
		mvaluetype.Enum("A", "B"), mvaluetype.EnumWithIDs(mvaluetype.EnumOption{ID: "1", Label: "x"}),
	} {
		if !any_.Unifies(other) {
			t.Errorf("Any should unify with %v", other)
		}
	}
}

func TestUnifies_AnyRejectsCauseReason(t *testing.T) {
	any_ := mvaluetype.Any()
	if any_.Unifies(mvaluetype.CauseReason()) {
		t.Error("Any must not unify with CauseReason: a generic node body cannot safely consume the metadata-carrying cause-reason value")
	}
}

func TestUnifies_AnyStillRejectsExecution(t *testing.T) {
	any_ := mvaluetype.Any()
	if any_.Unifies(mvaluetype.Execution()) {
		t.Error("Any must not unify with Execution: data and flow pins are never interchangeable")
	}
}

func TestUnifies_MismatchedScalarKindsDoNotUnify(t *testing.T) {
	if mvaluetype.Integer().Unifies(mvaluetype.Float()) {
		t.Error("Integer and Float are distinct kinds and must not unify")
	}
	if mvaluetype.Boolean().Unifies(mvaluetype.StringT()) {
		t.Error("Boolean and String are distinct kinds and must not unify")
	}
}
