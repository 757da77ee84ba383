package value_test

import (
	"testing"

	"github.com/ember-lang/ember/pkg/value"
)

func TestFalsy(t *testing.T) {
	tests := []struct {
		v     value.Value
		falsy bool
	}{
		{value.Nil, true},
		{value.Bool(false), true},
		{value.Bool(true), false},
		{value.Number(0), false},
		{value.Number(1), false},
	}
	for _, tt := range tests {
		if got := tt.v.Falsy(); got != tt.falsy {
			t.Errorf("Falsy(%+v) = %v, want %v", tt.v, got, tt.falsy)
		}
	}
}

func TestEqualNeverCoercesAcrossKinds(t *testing.T) {
	obj := value.NewObjString("", 0)
	tests := []struct {
		a, b  value.Value
		equal bool
	}{
		{value.Number(0), value.Bool(false), false},
		{value.Nil, value.Bool(false), false},
		{value.FromObj(obj), value.Bool(false), false},
		{value.Number(1), value.Number(1), true},
		{value.Bool(true), value.Bool(true), true},
		{value.Nil, value.Nil, true},
	}
	for _, tt := range tests {
		if got := value.Equal(tt.a, tt.b); got != tt.equal {
			t.Errorf("Equal(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.equal)
		}
	}
}

func TestEqualObjComparesReferenceIdentity(t *testing.T) {
	a := value.FromObj(value.NewObjString("hi", 1))
	b := value.FromObj(value.NewObjString("hi", 1))
	if value.Equal(a, b) {
		t.Error("two distinct ObjString allocations with equal bytes compared equal; interning is the VM's job, not Value.Equal's")
	}
	if !value.Equal(a, a) {
		t.Error("a value should equal itself")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    value.Value
		want string
	}{
		{value.Nil, "nil"},
		{value.Bool(true), "true"},
		{value.Bool(false), "false"},
		{value.Number(3), "3"},
		{value.Number(1.5), "1.5"},
		{value.FromObj(value.NewObjString("hello", 0)), "hello"},
	}
	for _, tt := range tests {
		if got := value.Format(tt.v); got != tt.want {
			t.Errorf("Format(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
