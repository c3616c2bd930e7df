package typing

import "pyrs/ast"

// Type is a target type label.  The lowerer and emitter only ever see labels
// through this interface; they never inspect how a label was chosen.
type Type interface {
	// Name returns the target spelling of the type: eg. `i64`.
	Name() string

	// IsFloat returns whether the type is a floating-point type.
	IsFloat() bool

	// Hashable returns whether values of the type can key a hash map.
	Hashable() bool
}

// PrimType represents a primitive numeric type.  It should be one of the
// enumerated primitive types.
type PrimType int

// Enumeration of different primitive types.
const (
	PrimI32 PrimType = iota
	PrimI64
	PrimI128
	PrimF64
)

func (pt PrimType) Name() string {
	switch pt {
	case PrimI32:
		return "i32"
	case PrimI64:
		return "i64"
	case PrimI128:
		return "i128"
	default:
		// PrimF64
		return "f64"
	}
}

func (pt PrimType) IsFloat() bool {
	return pt == PrimF64
}

func (pt PrimType) Hashable() bool {
	return !pt.IsFloat()
}

func (pt PrimType) String() string {
	return pt.Name()
}

// NumericLabels lists the accepted numeric type labels.
var NumericLabels = []string{"i32", "i64", "i128", "f64"}

// LookupNumeric returns the primitive type for a numeric label.
func LookupNumeric(label string) (PrimType, bool) {
	switch label {
	case "i32":
		return PrimI32, true
	case "i64":
		return PrimI64, true
	case "i128":
		return PrimI128, true
	case "f64":
		return PrimF64, true
	}

	return 0, false
}

// -----------------------------------------------------------------------------

// Signature is the inferred type of a function: one type per parameter, in
// order, and a return type.
type Signature struct {
	Params []Type
	Return Type
}

// Inferencer assigns types to the parameters and return value of a function.
type Inferencer interface {
	Infer(fd *ast.FuncDef) Signature
}

// Fixed is an inferencer that assigns one type to every parameter and return
// value without looking at the function body.
type Fixed struct {
	Type Type
}

// NewFixed creates a fixed inferencer for the given type.
func NewFixed(typ Type) *Fixed {
	return &Fixed{Type: typ}
}

func (f *Fixed) Infer(fd *ast.FuncDef) Signature {
	params := make([]Type, len(fd.Params))
	for i := range params {
		params[i] = f.Type
	}

	return Signature{Params: params, Return: f.Type}
}

// Uniform returns the single type of a signature if all of its parameters and
// its return value share a type.
func (s Signature) Uniform() (Type, bool) {
	for _, param := range s.Params {
		if param != s.Return {
			return nil, false
		}
	}

	return s.Return, true
}

// AllHashable returns whether every parameter type can key a hash map.
func (s Signature) AllHashable() bool {
	for _, param := range s.Params {
		if !param.Hashable() {
			return false
		}
	}

	return true
}
