package catalogs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/vm"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

// ScriptDef is a script as stored in agents.json.
//
// Operands are JSON values: a number is an integer literal unless written
// with a fraction or exponent, a string is a string literal, and objects
// name everything else:
//
//	{"vec": [x, y]}              vector literal
//	{"var": "VA03"}, {"var": "OV12"}, {"var": "_R_"}
//	{"game": "name"}
//	{"call": "VEC: MAKE", "args": [1, 2]}
type ScriptDef struct {
	Name         string           `json:"name"`
	Repeat       bool             `json:"repeat,omitempty"`
	Instructions []InstructionDef `json:"instructions"`
}

type InstructionDef struct {
	Op   string            `json:"op"`
	Args []json.RawMessage `json:"args,omitempty"`
}

func (d *ScriptDef) Compile() (*vm.Script, error) {
	s := &vm.Script{Name: d.Name, Repeat: d.Repeat, Instructions: make([]vm.Instruction, 0, len(d.Instructions))}
	for pc, in := range d.Instructions {
		ins, err := compileInstruction(in)
		if err != nil {
			return nil, fmt.Errorf("script %q pc %d: %w", d.Name, pc, err)
		}
		s.Instructions = append(s.Instructions, ins)
	}
	return s, nil
}

func compileInstruction(in InstructionDef) (vm.Instruction, error) {
	args := make([]any, 0, len(in.Args))
	for i, raw := range in.Args {
		v, err := decodeAny(raw)
		if err != nil {
			return vm.Instruction{}, fmt.Errorf("%s operand %d: %w", in.Op, i, err)
		}
		args = append(args, v)
	}
	return instructionFrom(in.Op, args)
}

func instructionFrom(op string, args []any) (vm.Instruction, error) {
	if strings.TrimSpace(op) == "" {
		return vm.Instruction{}, fmt.Errorf("empty opcode")
	}
	ins := vm.Instruction{Op: op, Args: make([]vm.Operand, 0, len(args))}
	for i, a := range args {
		o, err := operandFrom(a)
		if err != nil {
			return vm.Instruction{}, fmt.Errorf("%s operand %d: %w", op, i, err)
		}
		ins.Args = append(ins.Args, o)
	}
	return ins, nil
}

func decodeAny(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func operandFrom(v any) (vm.Operand, error) {
	switch x := v.(type) {
	case json.Number, string:
		lit, err := scalarLiteral(x)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Lit(lit), nil
	case map[string]any:
		return objectOperand(x)
	}
	return vm.Operand{}, fmt.Errorf("unsupported operand %v", v)
}

func objectOperand(obj map[string]any) (vm.Operand, error) {
	if len(obj) == 0 {
		return vm.Operand{}, fmt.Errorf("empty operand object")
	}
	if raw, ok := obj["vec"]; ok {
		vec, err := vectorFrom(raw)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Lit(value.Vec(vec)), nil
	}
	if raw, ok := obj["var"]; ok {
		name, _ := raw.(string)
		return varOperand(name)
	}
	if raw, ok := obj["game"]; ok {
		name, ok := raw.(string)
		if !ok {
			return vm.Operand{}, fmt.Errorf("game variable name must be a string")
		}
		return vm.Game(name), nil
	}
	if raw, ok := obj["call"]; ok {
		op, _ := raw.(string)
		var args []any
		if a, ok := obj["args"]; ok {
			if args, ok = a.([]any); !ok {
				return vm.Operand{}, fmt.Errorf("call %q: args must be an array", op)
			}
		}
		ins, err := instructionFrom(op, args)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Call(ins.Op, ins.Args...), nil
	}
	return vm.Operand{}, fmt.Errorf("unknown operand object %v", obj)
}

func varOperand(name string) (vm.Operand, error) {
	if name == "_R_" {
		return vm.Result(), nil
	}
	if len(name) != 4 {
		return vm.Operand{}, fmt.Errorf("bad variable %q", name)
	}
	idx, err := strconv.Atoi(name[2:])
	if err != nil || idx < 0 || idx >= vm.NumVars {
		return vm.Operand{}, fmt.Errorf("bad variable %q", name)
	}
	switch name[:2] {
	case "VA":
		return vm.VA(idx), nil
	case "OV":
		return vm.OV(idx), nil
	}
	return vm.Operand{}, fmt.Errorf("bad variable %q", name)
}

func scalarLiteral(v any) (value.Value, error) {
	switch x := v.(type) {
	case string:
		return value.String(x), nil
	case json.Number:
		s := x.String()
		if strings.ContainsAny(s, ".eE") {
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return value.Value{}, fmt.Errorf("float %s: %w", s, err)
			}
			return value.Float(float32(f)), nil
		}
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return value.Value{}, fmt.Errorf("integer %s: %w", s, err)
		}
		return value.Int(int32(i)), nil
	}
	return value.Value{}, fmt.Errorf("not a literal: %v", v)
}

func vectorFrom(v any) (mathx.Vector, error) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 2 {
		return mathx.Vector{}, fmt.Errorf("vector must be [x, y]")
	}
	var xy [2]float32
	for i, c := range arr {
		n, ok := c.(json.Number)
		if !ok {
			return mathx.Vector{}, fmt.Errorf("vector component %d is not a number", i)
		}
		f, err := n.Float64()
		if err != nil {
			return mathx.Vector{}, err
		}
		xy[i] = float32(f)
	}
	return mathx.Vec(xy[0], xy[1]), nil
}
