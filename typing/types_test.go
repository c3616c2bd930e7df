package typing

import (
	"testing"

	"pyrs/ast"
)

func TestFixedInfer(t *testing.T) {
	fd := &ast.FuncDef{
		Name:   "ack",
		Params: []*ast.Param{{Name: "m"}, {Name: "n"}},
	}

	for _, label := range NumericLabels {
		t.Run(label, func(t *testing.T) {
			typ, ok := LookupNumeric(label)
			if !ok {
				t.Fatalf("label %q is not recognized", label)
			}

			sig := NewFixed(typ).Infer(fd)

			if len(sig.Params) != 2 {
				t.Fatalf("got %d parameter types, want 2", len(sig.Params))
			}

			for i, param := range sig.Params {
				if param.Name() != label {
					t.Errorf("parameter %d: got %s, want %s", i, param.Name(), label)
				}
			}

			if sig.Return.Name() != label {
				t.Errorf("return: got %s, want %s", sig.Return.Name(), label)
			}

			if uniform, ok := sig.Uniform(); !ok || uniform.Name() != label {
				t.Errorf("signature is not uniform over %s", label)
			}
		})
	}
}

func TestPrimTypeProperties(t *testing.T) {
	tests := []struct {
		typ      PrimType
		float    bool
		hashable bool
	}{
		{PrimI32, false, true},
		{PrimI64, false, true},
		{PrimI128, false, true},
		{PrimF64, true, false},
	}

	for _, test := range tests {
		t.Run(test.typ.Name(), func(t *testing.T) {
			if got := test.typ.IsFloat(); got != test.float {
				t.Errorf("IsFloat: got %v, want %v", got, test.float)
			}

			if got := test.typ.Hashable(); got != test.hashable {
				t.Errorf("Hashable: got %v, want %v", got, test.hashable)
			}
		})
	}
}

func TestLookupNumericRejectsUnknown(t *testing.T) {
	for _, label := range []string{"", "int", "u64", "I64", "f32"} {
		if _, ok := LookupNumeric(label); ok {
			t.Errorf("label %q was accepted", label)
		}
	}
}

func TestZeroParamSignature(t *testing.T) {
	sig := NewFixed(PrimI64).Infer(&ast.FuncDef{Name: "main"})

	if len(sig.Params) != 0 || !sig.AllHashable() {
		t.Errorf("got %+v for a function without parameters", sig)
	}
}
