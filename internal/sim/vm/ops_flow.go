package vm

import "agentworld.ai/internal/protocol"

var flowOps = []Opcode{
	{Name: "STOP", Kind: Command, Handler: stop},
	{Name: "WAIT", Kind: Command,
		Params:  []Param{{"ticks", ParamInt}},
		Handler: wait},
}

func stop(f *Frame) error {
	f.Stop()
	return nil
}

func wait(f *Frame) error {
	n := f.Int(0)
	if n < 1 {
		return protocol.BadParameter("ticks: WAIT needs at least 1 tick, got %d", n)
	}
	f.Wait(int(n))
	return nil
}
