package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// StateSnapshot is the machine-readable payload behind the CLI's
// --dump-state flag: enough to audit a run without re-executing it. It
// intentionally omits byte-code bodies (only digests), keeping the
// snapshot small even for a VM with many registered scripts.
type StateSnapshot struct {
	SWFVersion uint8          `cbor:"swfVersion"`
	HeapLive   int            `cbor:"heapLive"`
	HeapFreed  int            `cbor:"heapFreed"`
	Scripts    []ScriptDigest `cbor:"scripts"`
}

// ScriptDigest is one script registry entry's digest record within a
// StateSnapshot.
type ScriptDigest struct {
	ID     uint64 `cbor:"id"`
	URI    string `cbor:"uri,omitempty"`
	Target string `cbor:"target,omitempty"`
	Digest []byte `cbor:"digest"`
	Size   int    `cbor:"size"`
}

// Snapshot captures v's current state for --dump-state, in registration
// order.
func (v *VM) Snapshot() StateSnapshot {
	stats := v.Heap.Stats()
	snap := StateSnapshot{
		SWFVersion: v.Machine.SWFVersion,
		HeapLive:   stats.Live,
		HeapFreed:  stats.Freed,
		Scripts:    make([]ScriptDigest, 0, len(v.scripts)),
	}
	for id := ScriptId(1); id <= v.nextID; id++ {
		s, ok := v.scripts[id]
		if !ok {
			continue
		}
		digest := make([]byte, len(s.Digest))
		copy(digest, s.Digest[:])
		snap.Scripts = append(snap.Scripts, ScriptDigest{
			ID:     uint64(s.ID),
			URI:    s.URI,
			Target: s.Target,
			Digest: digest,
			Size:   len(s.Code),
		})
	}
	return snap
}

// MarshalState produces the deterministic CBOR encoding of a snapshot
// (the teacher's CanonicalPlan.MarshalBinary pattern, reused for
// --dump-state's machine-readable output).
func MarshalState(snap StateSnapshot) ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("vm: create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("vm: CBOR encode state: %w", err)
	}
	return data, nil
}
