package vm

import (
	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

var vectorOps = []Opcode{
	{Name: "VEC: MAKE", Kind: Function, Returns: value.KindVector,
		Params:  []Param{{"x", ParamFloat}, {"y", ParamFloat}},
		Handler: vecMake},
	{Name: "VEC: GETC", Kind: Command,
		Params:  []Param{{"vec", ParamVector}, {"x", ParamVariable}, {"y", ParamVariable}},
		Handler: vecGetc},
	{Name: "VEC: ANGL", Kind: Function, Returns: value.KindFloat,
		Params:  []Param{{"vec", ParamVector}},
		Handler: vecAngl},
	{Name: "VEC: SUBV", Kind: Command,
		Params:  []Param{{"vec1", ParamVariable}, {"vec2", ParamVector}},
		Handler: vecSubv},
	{Name: "VEC: ADDV", Kind: Command,
		Params:  []Param{{"vec1", ParamVariable}, {"vec2", ParamVector}},
		Handler: vecAddv},
	{Name: "VEC: MULV", Kind: Command,
		Params:  []Param{{"vec", ParamVariable}, {"mag", ParamFloat}},
		Handler: vecMulv},
	{Name: "VEC: UNIT", Kind: Function, Returns: value.KindVector,
		Params:  []Param{{"angle", ParamFloat}},
		Handler: vecUnit},
	{Name: "VEC: NULL", Kind: Function, Returns: value.KindVector,
		Handler: vecNull},
	{Name: "VEC: MAGN", Kind: Function, Returns: value.KindFloat,
		Params:  []Param{{"vec", ParamVector}},
		Handler: vecMagn},
	{Name: "VEC: SETV", Kind: Command,
		Params:  []Param{{"dest", ParamVariable}, {"src", ParamVector}},
		Handler: vecSetv},
}

func vecMake(f *Frame) error {
	f.Return(value.Vec(mathx.Vec(f.Float(0), f.Float(1))))
	return nil
}

func vecGetc(f *Frame) error {
	v := f.Vector(0)
	f.Var(1).SetFloat(v.X)
	f.Var(2).SetFloat(v.Y)
	return nil
}

func vecAngl(f *Frame) error {
	f.Return(value.Float(f.Vector(0).Angle()))
	return nil
}

// heldVector reads the vector a mutating opcode works on. The slot must
// already hold one; its declared kind alone is not enough.
func heldVector(f *Frame, i int) (mathx.Vector, error) {
	slot := f.Var(i)
	if !slot.HasVector() {
		return mathx.Vector{}, protocol.BadParameter("%s: variable holds %s, not a vector", f.op.Params[i].Name, slot.Kind())
	}
	v, _ := slot.AsVector()
	return v, nil
}

func vecSubv(f *Frame) error {
	v, err := heldVector(f, 0)
	if err != nil {
		return err
	}
	f.Var(0).SetVector(v.Sub(f.Vector(1)))
	return nil
}

func vecAddv(f *Frame) error {
	v, err := heldVector(f, 0)
	if err != nil {
		return err
	}
	f.Var(0).SetVector(v.Add(f.Vector(1)))
	return nil
}

func vecMulv(f *Frame) error {
	v, err := heldVector(f, 0)
	if err != nil {
		return err
	}
	f.Var(0).SetVector(v.Scale(f.Float(1)))
	return nil
}

func vecUnit(f *Frame) error {
	f.Return(value.Vec(mathx.UnitVector(mathx.Deg2Rad(f.Float(0)))))
	return nil
}

func vecNull(f *Frame) error {
	f.Return(value.Vec(mathx.Vector{}))
	return nil
}

func vecMagn(f *Frame) error {
	f.Return(value.Float(f.Vector(0).Magnitude()))
	return nil
}

func vecSetv(f *Frame) error {
	f.Var(0).SetVector(f.Vector(1))
	return nil
}
