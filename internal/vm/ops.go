package vm

import (
	"math"

	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/value"
)

// binaryOp implements the arithmetic/comparison opcodes' abstract
// operations (spec §4.2's ToNumeric-driven ladder for arithmetic, the
// Abstract/Strict Equality Comparison algorithms for Eq/StrictEq, and
// Abstract Relational Comparison for Lt/Le/Gt/Ge).
func (eng *Engine) binaryOp(op compiler.Opcode, a, b value.Value) (value.Value, error) {
	switch op {
	case compiler.OpEq:
		eq, err := value.AbstractEquals(a, b)
		return value.Bool(eq), err
	case compiler.OpNotEq:
		eq, err := value.AbstractEquals(a, b)
		return value.Bool(!eq), err
	case compiler.OpStrictEq:
		return value.Bool(value.StrictEquals(a, b)), nil
	case compiler.OpStrictNotEq:
		return value.Bool(!value.StrictEquals(a, b)), nil
	case compiler.OpLt, compiler.OpLe, compiler.OpGt, compiler.OpGe:
		return eng.relational(op, a, b)
	case compiler.OpIn:
		k, err := eng.obj.ToKey(b)
		if err != nil {
			return value.Value{}, err
		}
		if !b.IsObject() {
			return value.Value{}, &value.TypeError{Message: "cannot use 'in' on a non-object"}
		}
		ok, err := eng.obj.HasProperty(b, k)
		return value.Bool(ok), err
	case compiler.OpInstanceOf:
		return eng.instanceOf(a, b)
	}

	// Addition has its own ladder: string concatenation wins if either
	// ToPrimitive'd operand is a string (spec's AddOperation).
	if op == compiler.OpAdd {
		pa, err := value.ToPrimitive(a, "")
		if err != nil {
			return value.Value{}, err
		}
		pb, err := value.ToPrimitive(b, "")
		if err != nil {
			return value.Value{}, err
		}
		if pa.IsString() || pb.IsString() {
			sa, err := eng.toGoString(pa)
			if err != nil {
				return value.Value{}, err
			}
			sb, err := eng.toGoString(pb)
			if err != nil {
				return value.Value{}, err
			}
			return eng.internStringValue(sa + sb), nil
		}
		a, b = pa, pb
	}

	na, err := value.ToNumber(a)
	if err != nil {
		return value.Value{}, err
	}
	nb, err := value.ToNumber(b)
	if err != nil {
		return value.Value{}, err
	}
	x, y := na.AsFloat64(), nb.AsFloat64()
	switch op {
	case compiler.OpAdd:
		return value.Number(x + y), nil
	case compiler.OpSub:
		return value.Number(x - y), nil
	case compiler.OpMul:
		return value.Number(x * y), nil
	case compiler.OpDiv:
		return value.Number(x / y), nil
	case compiler.OpMod:
		return value.Number(math.Mod(x, y)), nil
	case compiler.OpPow:
		return value.Number(math.Pow(x, y)), nil
	case compiler.OpShiftL:
		xi, _ := value.ToInt32(na)
		yi, _ := value.ToUint32(nb)
		return value.Int32(xi << (yi & 31)), nil
	case compiler.OpShiftR:
		xi, _ := value.ToInt32(na)
		yi, _ := value.ToUint32(nb)
		return value.Int32(xi >> (yi & 31)), nil
	case compiler.OpUShiftR:
		xi, _ := value.ToUint32(na)
		yi, _ := value.ToUint32(nb)
		return value.Number(float64(xi >> (yi & 31))), nil
	case compiler.OpBitAnd:
		xi, _ := value.ToInt32(na)
		yi, _ := value.ToInt32(nb)
		return value.Int32(xi & yi), nil
	case compiler.OpBitOr:
		xi, _ := value.ToInt32(na)
		yi, _ := value.ToInt32(nb)
		return value.Int32(xi | yi), nil
	case compiler.OpBitXor:
		xi, _ := value.ToInt32(na)
		yi, _ := value.ToInt32(nb)
		return value.Int32(xi ^ yi), nil
	}
	return value.Undefined, nil
}

func (eng *Engine) relational(op compiler.Opcode, a, b value.Value) (value.Value, error) {
	pa, err := value.ToPrimitive(a, "number")
	if err != nil {
		return value.Value{}, err
	}
	pb, err := value.ToPrimitive(b, "number")
	if err != nil {
		return value.Value{}, err
	}
	if pa.IsString() && pb.IsString() {
		sa, _ := eng.toGoString(pa)
		sb, _ := eng.toGoString(pb)
		switch op {
		case compiler.OpLt:
			return value.Bool(sa < sb), nil
		case compiler.OpLe:
			return value.Bool(sa <= sb), nil
		case compiler.OpGt:
			return value.Bool(sa > sb), nil
		default:
			return value.Bool(sa >= sb), nil
		}
	}
	na, err := value.ToNumber(pa)
	if err != nil {
		return value.Value{}, err
	}
	nb, err := value.ToNumber(pb)
	if err != nil {
		return value.Value{}, err
	}
	x, y := na.AsFloat64(), nb.AsFloat64()
	if math.IsNaN(x) || math.IsNaN(y) {
		return value.False, nil
	}
	switch op {
	case compiler.OpLt:
		return value.Bool(x < y), nil
	case compiler.OpLe:
		return value.Bool(x <= y), nil
	case compiler.OpGt:
		return value.Bool(x > y), nil
	default:
		return value.Bool(x >= y), nil
	}
}

func (eng *Engine) instanceOf(v, target value.Value) (value.Value, error) {
	if !eng.obj.IsCallable(target) {
		return value.Value{}, &value.TypeError{Message: "Right-hand side of 'instanceof' is not callable"}
	}
	protoVal, err := eng.obj.GetV(target, eng.keyFor("prototype"))
	if err != nil {
		return value.Value{}, err
	}
	if !v.IsObject() {
		return value.False, nil
	}
	cur, err := eng.obj.GetPrototypeOf(v)
	if err != nil {
		return value.Value{}, err
	}
	for cur.IsObject() {
		if value.SameValue(cur, protoVal) {
			return value.True, nil
		}
		cur, err = eng.obj.GetPrototypeOf(cur)
		if err != nil {
			return value.Value{}, err
		}
	}
	return value.False, nil
}

func (eng *Engine) unaryOp(op compiler.Opcode, a value.Value) (value.Value, error) {
	switch op {
	case compiler.OpNeg:
		if a.IsBoolean() {
			// Unary `!` is compiled to OpNeg too (see compiler's compileUnary
			// comment); a boolean operand means that's what this is.
			return value.Bool(!value.ToBoolean(a)), nil
		}
		n, err := value.ToNumber(a)
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(-n.AsFloat64()), nil
	case compiler.OpPos:
		return value.ToNumber(a)
	case compiler.OpBitNot:
		i, err := value.ToInt32(a)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int32(^i), nil
	case compiler.OpInc:
		n, err := value.ToNumber(a)
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(n.AsFloat64() + 1), nil
	case compiler.OpDec:
		n, err := value.ToNumber(a)
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(n.AsFloat64() - 1), nil
	}
	return value.Undefined, nil
}

func (eng *Engine) toGoString(v value.Value) (string, error) {
	sv, err := value.ToStringValue(v)
	if err != nil {
		return "", err
	}
	return eng.obj.Strings.Lookup(sv.Ref()), nil
}
