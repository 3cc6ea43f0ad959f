package vm

import (
	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

var agentOps = []Opcode{
	{Name: "OWNR", Kind: Function, Returns: value.KindAgent, Handler: ownr},
	{Name: "NULL", Kind: Function, Returns: value.KindAgent, Handler: nullAgent},
	{Name: "POSX", Kind: Function, Returns: value.KindFloat, Handler: ownerFloat(func(a Actor) float32 { return a.Position().X })},
	{Name: "POSY", Kind: Function, Returns: value.KindFloat, Handler: ownerFloat(func(a Actor) float32 { return a.Position().Y })},
	{Name: "VELX", Kind: Function, Returns: value.KindFloat, Handler: ownerFloat(func(a Actor) float32 { return a.Velocity().X })},
	{Name: "VELY", Kind: Function, Returns: value.KindFloat, Handler: ownerFloat(func(a Actor) float32 { return a.Velocity().Y })},
	{Name: "MVTO", Kind: Command,
		Params:  []Param{{"x", ParamFloat}, {"y", ParamFloat}},
		Handler: mvto},
	{Name: "MVBY", Kind: Command,
		Params:  []Param{{"dx", ParamFloat}, {"dy", ParamFloat}},
		Handler: mvby},
	{Name: "VELO", Kind: Command,
		Params:  []Param{{"vx", ParamFloat}, {"vy", ParamFloat}},
		Handler: velo},
	{Name: "PERM", Kind: Command,
		Params:  []Param{{"perm", ParamInt}},
		Handler: setPerm},
	{Name: "PERM", Kind: Function, Returns: value.KindInteger, Handler: getPerm},
	{Name: "ATTR", Kind: Command,
		Params:  []Param{{"attr", ParamInt}},
		Handler: setAttr},
	{Name: "ATTR", Kind: Function, Returns: value.KindInteger, Handler: getAttr},
	{Name: "SHOW", Kind: Command,
		Params:  []Param{{"visible", ParamInt}},
		Handler: show},
	{Name: "KILL", Kind: Command,
		Params:  []Param{{"agent", ParamAgent}},
		Handler: kill},
}

func ownr(f *Frame) error {
	f.Return(value.Agent(f.OwnerRef()))
	return nil
}

func nullAgent(f *Frame) error {
	f.Return(value.Agent(value.NullAgent))
	return nil
}

func ownerFloat(get func(Actor) float32) Handler {
	return func(f *Frame) error {
		a, err := f.Owner()
		if err != nil {
			return err
		}
		f.Return(value.Float(get(a)))
		return nil
	}
}

func mvto(f *Frame) error {
	a, err := f.Owner()
	if err != nil {
		return err
	}
	a.SetPosition(mathx.Vec(f.Float(0), f.Float(1)))
	return nil
}

func mvby(f *Frame) error {
	a, err := f.Owner()
	if err != nil {
		return err
	}
	a.SetPosition(a.Position().Add(mathx.Vec(f.Float(0), f.Float(1))))
	return nil
}

func velo(f *Frame) error {
	a, err := f.Owner()
	if err != nil {
		return err
	}
	a.SetVelocity(mathx.Vec(f.Float(0), f.Float(1)))
	return nil
}

func setPerm(f *Frame) error {
	p := f.Int(0)
	if p < roommap.PermMin || p > roommap.PermMax {
		return protocol.BadParameter("perm: %d outside [%d,%d]", p, roommap.PermMin, roommap.PermMax)
	}
	a, err := f.Owner()
	if err != nil {
		return err
	}
	a.SetPerm(int(p))
	return nil
}

func getPerm(f *Frame) error {
	a, err := f.Owner()
	if err != nil {
		return err
	}
	f.Return(value.Int(int32(a.Perm())))
	return nil
}

func setAttr(f *Frame) error {
	a, err := f.Owner()
	if err != nil {
		return err
	}
	a.SetAttributes(f.Int(0))
	return nil
}

func getAttr(f *Frame) error {
	a, err := f.Owner()
	if err != nil {
		return err
	}
	f.Return(value.Int(a.Attributes()))
	return nil
}

func show(f *Frame) error {
	a, err := f.Owner()
	if err != nil {
		return err
	}
	switch f.Int(0) {
	case 0:
		a.SetVisible(false)
	case 1:
		a.SetVisible(true)
	default:
		return protocol.BadParameter("visible: want 0 or 1, got %d", f.Int(0))
	}
	return nil
}

// kill destroys the target. Killing the owner also ends the script.
func kill(f *Frame) error {
	a, err := f.Agent(0)
	if err != nil {
		return err
	}
	if err := f.Host().Kill(a.Ref()); err != nil {
		return err
	}
	if a.Ref() == f.OwnerRef() {
		f.Stop()
	}
	return nil
}
