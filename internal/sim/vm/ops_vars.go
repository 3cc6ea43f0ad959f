package vm

import (
	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/value"
)

var variableOps = []Opcode{
	{Name: "SETV", Kind: Command,
		Params:  []Param{{"var", ParamVariable}, {"value", ParamNumber}},
		Handler: setv},
	{Name: "ADDV", Kind: Command,
		Params:  []Param{{"var", ParamVariable}, {"value", ParamNumber}},
		Handler: arith(func(a, b int32) (int32, error) { return a + b, nil }, func(a, b float32) (float32, error) { return a + b, nil })},
	{Name: "SUBV", Kind: Command,
		Params:  []Param{{"var", ParamVariable}, {"value", ParamNumber}},
		Handler: arith(func(a, b int32) (int32, error) { return a - b, nil }, func(a, b float32) (float32, error) { return a - b, nil })},
	{Name: "MULV", Kind: Command,
		Params:  []Param{{"var", ParamVariable}, {"value", ParamNumber}},
		Handler: arith(func(a, b int32) (int32, error) { return a * b, nil }, func(a, b float32) (float32, error) { return a * b, nil })},
	{Name: "DIVV", Kind: Command,
		Params:  []Param{{"var", ParamVariable}, {"value", ParamNumber}},
		Handler: arith(divInt, divFloat)},
	{Name: "SETS", Kind: Command,
		Params:  []Param{{"var", ParamVariable}, {"value", ParamString}},
		Handler: sets},
	{Name: "SETA", Kind: Command,
		Params:  []Param{{"var", ParamVariable}, {"value", ParamAgent}},
		Handler: seta},
}

func setv(f *Frame) error {
	f.Var(0).Set(f.Value(1))
	return nil
}

func sets(f *Frame) error {
	f.Var(0).SetString(f.String(1))
	return nil
}

func seta(f *Frame) error {
	f.Var(0).SetAgent(f.AgentRef(1))
	return nil
}

// arith builds an in-place numeric opcode. Two integers stay an integer;
// anything involving a float becomes a float. An unset variable counts as
// integer zero.
func arith(fi func(a, b int32) (int32, error), ff func(a, b float32) (float32, error)) Handler {
	return func(f *Frame) error {
		slot := f.Var(0)
		cur := *slot
		if cur.IsNull() {
			cur = value.Int(0)
		}
		if !cur.IsNumeric() {
			return protocol.BadParameter("var: variable holds %s, not a number", cur.Kind())
		}
		rhs := f.Value(1)
		if cur.IsKind(value.KindInteger) && rhs.IsKind(value.KindInteger) {
			a, _ := cur.AsInt()
			b, _ := rhs.AsInt()
			n, err := fi(a, b)
			if err != nil {
				return err
			}
			slot.SetInt(n)
			return nil
		}
		a, _ := cur.AsFloat()
		b, _ := rhs.AsFloat()
		x, err := ff(a, b)
		if err != nil {
			return err
		}
		slot.SetFloat(x)
		return nil
	}
}

func divInt(a, b int32) (int32, error) {
	if b == 0 {
		return 0, protocol.BadParameter("division by zero")
	}
	return a / b, nil
}

func divFloat(a, b float32) (float32, error) {
	if b == 0 {
		return 0, protocol.BadParameter("division by zero")
	}
	return a / b, nil
}
