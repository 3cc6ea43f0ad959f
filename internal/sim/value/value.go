// Package value implements the tagged values scripts compute with.
//
// A Value holds exactly one of integer, float, string, vector, agent
// reference or byte string. Accessors check the tag and return a
// BadParameter error on mismatch; the only implicit conversion is the
// Integer<->Float numeric promotion.
package value

import (
	"bytes"
	"fmt"
	"strconv"

	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindString
	KindVector
	KindAgent
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindVector:
		return "vector"
	case KindAgent:
		return "agent"
	case KindBytes:
		return "bytestring"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// AgentRef is a non-owning, generation-checked handle into the world's agent
// table. The zero AgentRef is the null agent.
type AgentRef struct {
	Index uint32
	Gen   uint32
}

var NullAgent = AgentRef{}

func (r AgentRef) IsNull() bool { return r == NullAgent }

func (r AgentRef) String() string {
	if r.IsNull() {
		return "agent(null)"
	}
	return fmt.Sprintf("agent(%d#%d)", r.Index, r.Gen)
}

// Value is copied by value. The zero Value is null (an unset variable).
type Value struct {
	kind Kind
	i    int32
	f    float32
	s    string
	v    mathx.Vector
	a    AgentRef
	b    []byte
}

func Int(i int32) Value        { return Value{kind: KindInteger, i: i} }
func Float(f float32) Value    { return Value{kind: KindFloat, f: f} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func Vec(v mathx.Vector) Value { return Value{kind: KindVector, v: v} }
func Agent(r AgentRef) Value   { return Value{kind: KindAgent, a: r} }
func Bytes(b []byte) Value     { return Value{kind: KindBytes, b: bytes.Clone(b)} }

func (v Value) Kind() Kind         { return v.kind }
func (v Value) IsNull() bool       { return v.kind == KindNull }
func (v Value) HasVector() bool    { return v.kind == KindVector }
func (v Value) IsNumeric() bool    { return v.kind == KindInteger || v.kind == KindFloat }
func (v Value) IsString() bool     { return v.kind == KindString }
func (v Value) IsKind(k Kind) bool { return v.kind == k }

func (v Value) mismatch(want Kind) error {
	return protocol.BadParameter("expected %s, got %s", want, v.kind)
}

// AsInt returns the integer payload. Floats are truncated toward zero.
func (v Value) AsInt() (int32, error) {
	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindFloat:
		return int32(v.f), nil
	default:
		return 0, v.mismatch(KindInteger)
	}
}

// AsFloat returns the float payload, promoting integers.
func (v Value) AsFloat() (float32, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInteger:
		return float32(v.i), nil
	default:
		return 0, v.mismatch(KindFloat)
	}
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.s, nil
}

func (v Value) AsVector() (mathx.Vector, error) {
	if v.kind != KindVector {
		return mathx.Vector{}, v.mismatch(KindVector)
	}
	return v.v, nil
}

// AsAgent returns the agent handle. It does not check that the agent is
// still alive; callers resolve the handle through the world.
func (v Value) AsAgent() (AgentRef, error) {
	if v.kind != KindAgent {
		return NullAgent, v.mismatch(KindAgent)
	}
	return v.a, nil
}

func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, v.mismatch(KindBytes)
	}
	return bytes.Clone(v.b), nil
}

// Equal compares tag and payload. Integer and float values compare numerically.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.kind == KindInteger && o.kind == KindInteger {
			return v.i == o.i
		}
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindVector:
		return v.v == o.v
	case KindAgent:
		return v.a == o.a
	case KindBytes:
		return bytes.Equal(v.b, o.b)
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInteger:
		return strconv.FormatInt(int64(v.i), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case KindString:
		return strconv.Quote(v.s)
	case KindVector:
		return "vec" + v.v.String()
	case KindAgent:
		return v.a.String()
	case KindBytes:
		return fmt.Sprintf("bytes[%d]", len(v.b))
	}
	return v.kind.String()
}

// Setters replace the slot's tag and payload in place.

func (v *Value) Set(o Value) {
	if o.kind == KindBytes {
		o.b = bytes.Clone(o.b)
	}
	*v = o
}

func (v *Value) SetInt(i int32)             { *v = Int(i) }
func (v *Value) SetFloat(f float32)         { *v = Float(f) }
func (v *Value) SetString(s string)         { *v = String(s) }
func (v *Value) SetVector(vec mathx.Vector) { *v = Vec(vec) }
func (v *Value) SetAgent(r AgentRef)        { *v = Agent(r) }
func (v *Value) SetBytes(b []byte)          { *v = Bytes(b) }
func (v *Value) Clear()                     { *v = Value{} }
