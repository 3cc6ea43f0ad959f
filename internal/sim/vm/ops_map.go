package vm

import (
	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
)

var mapOps = []Opcode{
	{Name: "MAPD", Kind: Command,
		Params:  []Param{{"width", ParamInt}, {"height", ParamInt}},
		Handler: mapd},
	{Name: "MAPW", Kind: Function, Returns: value.KindInteger, Handler: mapw},
	{Name: "MAPH", Kind: Function, Returns: value.KindInteger, Handler: maph},
	{Name: "ADDM", Kind: Function, Returns: value.KindInteger,
		Params:  []Param{{"x", ParamInt}, {"y", ParamInt}, {"width", ParamInt}, {"height", ParamInt}, {"background", ParamString}},
		Handler: addm},
	{Name: "ADDR", Kind: Function, Returns: value.KindInteger,
		Params: []Param{
			{"metaroom", ParamInt},
			{"x_left", ParamInt}, {"x_right", ParamInt},
			{"y_left_ceiling", ParamInt}, {"y_right_ceiling", ParamInt},
			{"y_left_floor", ParamInt}, {"y_right_floor", ParamInt},
		},
		Handler: addr},
	{Name: "DOOR", Kind: Command,
		Params:  []Param{{"room1", ParamInt}, {"room2", ParamInt}, {"perm", ParamInt}},
		Handler: setDoor},
	{Name: "DOOR", Kind: Function, Returns: value.KindInteger,
		Params:  []Param{{"room1", ParamInt}, {"room2", ParamInt}},
		Handler: getDoor},
	{Name: "GRAP", Kind: Function, Returns: value.KindInteger,
		Params:  []Param{{"x", ParamFloat}, {"y", ParamFloat}},
		Handler: grap},
	{Name: "GMAP", Kind: Function, Returns: value.KindInteger,
		Params:  []Param{{"x", ParamFloat}, {"y", ParamFloat}},
		Handler: gmap},
	{Name: "ROOM", Kind: Function, Returns: value.KindInteger,
		Params:  []Param{{"agent", ParamAgent}},
		Handler: room},
	{Name: "PROP", Kind: Command,
		Params:  []Param{{"room", ParamInt}, {"ca", ParamInt}, {"value", ParamFloat}},
		Handler: setProp},
	{Name: "PROP", Kind: Function, Returns: value.KindFloat,
		Params:  []Param{{"room", ParamInt}, {"ca", ParamInt}},
		Handler: getProp},
}

// mapErr reports a room graph refusal as a script error.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	return protocol.BadParameter("%v", err)
}

func mapd(f *Frame) error {
	w, h := f.Int(0), f.Int(1)
	if w <= 0 || h <= 0 {
		return protocol.BadParameter("map size %dx%d must be positive", w, h)
	}
	f.Map().SetMapDimensions(int(w), int(h))
	return nil
}

func mapw(f *Frame) error {
	f.Return(value.Int(int32(f.Map().Width())))
	return nil
}

func maph(f *Frame) error {
	f.Return(value.Int(int32(f.Map().Height())))
	return nil
}

func addm(f *Frame) error {
	mr, err := f.Map().AddMetaRoom(int(f.Int(0)), int(f.Int(1)), int(f.Int(2)), int(f.Int(3)), f.String(4), false)
	if err != nil {
		return mapErr(err)
	}
	f.Return(value.Int(int32(mr.ID)))
	return nil
}

func addr(f *Frame) error {
	g := roommap.Geometry{
		XLeft:         float32(f.Int(1)),
		XRight:        float32(f.Int(2)),
		YLeftCeiling:  float32(f.Int(3)),
		YRightCeiling: float32(f.Int(4)),
		YLeftFloor:    float32(f.Int(5)),
		YRightFloor:   float32(f.Int(6)),
	}
	r, err := f.Map().AddRoom(roommap.MetaRoomID(f.Int(0)), g)
	if err != nil {
		return mapErr(err)
	}
	f.Return(value.Int(int32(r.ID)))
	return nil
}

func setDoor(f *Frame) error {
	return mapErr(f.Map().SetDoorPerm(roommap.RoomID(f.Int(0)), roommap.RoomID(f.Int(1)), int(f.Int(2))))
}

func getDoor(f *Frame) error {
	m := f.Map()
	r1, r2 := roommap.RoomID(f.Int(0)), roommap.RoomID(f.Int(1))
	if _, err := m.GetRoom(r1); err != nil {
		return mapErr(err)
	}
	if _, err := m.GetRoom(r2); err != nil {
		return mapErr(err)
	}
	f.Return(value.Int(int32(m.GetDoorPerm(r1, r2))))
	return nil
}

func grap(f *Frame) error {
	id := int32(roommap.NoRoom)
	if r, ok := f.Map().RoomAt(f.Float(0), f.Float(1)); ok {
		id = int32(r.ID)
	}
	f.Return(value.Int(id))
	return nil
}

func gmap(f *Frame) error {
	id := int32(roommap.NoMetaRoom)
	if mr, ok := f.Map().MetaRoomAt(f.Float(0), f.Float(1)); ok {
		id = int32(mr.ID)
	}
	f.Return(value.Int(id))
	return nil
}

func room(f *Frame) error {
	a, err := f.Agent(0)
	if err != nil {
		return err
	}
	p := a.Position()
	id := int32(roommap.NoRoom)
	if r, ok := f.Map().RoomAt(p.X, p.Y); ok {
		id = int32(r.ID)
	}
	f.Return(value.Int(id))
	return nil
}

func setProp(f *Frame) error {
	return mapErr(f.Map().SetCA(roommap.RoomID(f.Int(0)), int(f.Int(1)), f.Float(2)))
}

func getProp(f *Frame) error {
	v, err := f.Map().GetCA(roommap.RoomID(f.Int(0)), int(f.Int(1)))
	if err != nil {
		return mapErr(err)
	}
	f.Return(value.Float(v))
	return nil
}
