package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/vm"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

// stateDigest hashes everything a replay must reproduce: agents and their
// scripts, game variables, and the room graph's mutable state.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	w.digestAgents(h, &tmp)
	w.digestGame(h, &tmp)
	w.digestRooms(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestAgents(h hashWriter, tmp *[8]byte) {
	agents := w.Agents()
	digestWriteU64(h, tmp, uint64(len(agents)))
	for _, a := range agents {
		digestWriteU64(h, tmp, uint64(a.ref.Index)<<32|uint64(a.ref.Gen))
		digestWriteVec(h, tmp, a.pos)
		digestWriteVec(h, tmp, a.vel)
		digestWriteI64(h, tmp, int64(a.perm))
		digestWriteI64(h, tmp, int64(a.attr))
		digestWriteI64(h, tmp, int64(a.depth))
		h.Write([]byte{boolByte(a.visible)})
		for i := range a.vars {
			digestWriteValue(h, tmp, a.vars[i])
		}
		m := a.vm
		h.Write([]byte{byte(m.State())})
		digestWriteI64(h, tmp, int64(m.PC()))
		digestWriteI64(h, tmp, int64(m.Waiting()))
		for i := 0; i < vm.NumVars; i++ {
			digestWriteValue(h, tmp, *m.Local(i))
		}
	}
}

func (w *World) digestGame(h hashWriter, tmp *[8]byte) {
	names := w.gameVarNames()
	digestWriteU64(h, tmp, uint64(len(names)))
	for _, name := range names {
		digestWriteString(h, tmp, name)
		digestWriteValue(h, tmp, *w.game[name])
	}
}

func (w *World) digestRooms(h hashWriter, tmp *[8]byte) {
	rooms := w.rooms.Rooms()
	digestWriteU64(h, tmp, uint64(len(rooms)))
	for _, r := range rooms {
		digestWriteI64(h, tmp, int64(r.ID))
		for ch := 0; ch < roommap.NumCA; ch++ {
			digestWriteU64(h, tmp, uint64(math.Float32bits(r.CA(ch))))
		}
		for _, n := range w.rooms.Neighbours(r.ID) {
			if n > r.ID {
				digestWriteI64(h, tmp, int64(n))
				digestWriteI64(h, tmp, int64(w.rooms.GetDoorPerm(r.ID, n)))
			}
		}
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteVec(h hashWriter, tmp *[8]byte, v mathx.Vector) {
	digestWriteU64(h, tmp, uint64(math.Float32bits(v.X))<<32|uint64(math.Float32bits(v.Y)))
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestWriteValue(h hashWriter, tmp *[8]byte, v value.Value) {
	h.Write([]byte{byte(v.Kind())})
	switch v.Kind() {
	case value.KindInteger:
		n, _ := v.AsInt()
		digestWriteI64(h, tmp, int64(n))
	case value.KindFloat:
		f, _ := v.AsFloat()
		digestWriteU64(h, tmp, uint64(math.Float32bits(f)))
	case value.KindString:
		s, _ := v.AsString()
		digestWriteString(h, tmp, s)
	case value.KindVector:
		vec, _ := v.AsVector()
		digestWriteVec(h, tmp, vec)
	case value.KindAgent:
		r, _ := v.AsAgent()
		digestWriteU64(h, tmp, uint64(r.Index)<<32|uint64(r.Gen))
	case value.KindBytes:
		b, _ := v.AsBytes()
		digestWriteString(h, tmp, string(b))
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
