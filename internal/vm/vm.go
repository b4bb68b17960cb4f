// Package vm assembles the interpreter, heap, and realm into the
// externally facing VM API spec.md §6 names: new_vm, create_script,
// run_to_completion. It owns the script registry keyed by a monotonically
// increasing ScriptId, the one collaborator spec.md §3 "Script" describes
// but leaves to the embedder.
package vm

import (
	"fmt"
	"log/slog"

	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/host"
	"github.com/open-flash/avmore-go/internal/interpreter"
	"github.com/open-flash/avmore-go/internal/realm"
	"github.com/open-flash/avmore-go/internal/values"
)

// ScriptId is a monotonically increasing identifier for a registered
// script, per spec.md §6.
type ScriptId uint64

// Script is the registry record spec.md §3 describes: the owned byte-code
// buffer plus optional source URI and default target identifier.
type Script struct {
	ID     ScriptId
	Code   []byte
	URI    string
	Target string
	Digest [32]byte
}

// VM is the top-level embeddable unit: one heap, one realm, one
// interpreter Machine, and the registry of scripts created against it.
// Matches spec.md §9's "Global VM state: encapsulated in the Vm struct" design note —
// there is no process-global mutable state anywhere in this repository.
type VM struct {
	Heap    *heap.Heap
	Machine *interpreter.Machine

	scripts map[ScriptId]*Script
	nextID  ScriptId
}

// New implements spec.md §6's `new_vm(host, swf_version)`: bootstraps a
// fresh heap and realm and wires an interpreter.Machine against them.
// actionCap <= 0 selects interpreter.DefaultActionCap; logger nil selects
// the Machine's own default.
func New(hostAdapter host.Host, swfVersion uint8, actionCap int, logger *slog.Logger) (*VM, error) {
	h := heap.New()
	rm, err := realm.Bootstrap(h, swfVersion)
	if err != nil {
		return nil, fmt.Errorf("vm: bootstrap realm: %w", err)
	}
	m := interpreter.NewMachine(h, hostAdapter, swfVersion, rm, actionCap, logger)
	return &VM{
		Heap:    h,
		Machine: m,
		scripts: make(map[ScriptId]*Script),
	}, nil
}

// CreateScript implements `vm.create_script(bytes, uri?, target?) →
// ScriptId`: the byte-code buffer is taken by reference (not copied; the
// caller must not mutate it afterward), content-hashed for --dump-state
// bookkeeping, and assigned the next monotonically increasing id (identical
// code registered twice gets two ids).
func (v *VM) CreateScript(code []byte, uri, target string) ScriptId {
	v.nextID++
	id := v.nextID
	v.scripts[id] = &Script{
		ID:     id,
		Code:   code,
		URI:    uri,
		Target: target,
		Digest: heap.ScriptDigest(code),
	}
	return id
}

// Script looks up a previously registered script by id.
func (v *VM) Script(id ScriptId) (*Script, bool) {
	s, ok := v.scripts[id]
	return s, ok
}

// RunToCompletion implements `vm.run_to_completion(script_id)`: drives the
// interpreter's fetch-decode-execute loop against the script's byte-code
// until Return, an uncaught Throw, end-of-code, or the action cap,
// whichever comes first.
func (v *VM) RunToCompletion(id ScriptId) (result values.Value, thrown *values.Value, err error) {
	s, ok := v.scripts[id]
	if !ok {
		return values.Undefined, nil, fmt.Errorf("vm: unknown script id %d", id)
	}
	return v.Machine.RunScript(s.Code)
}

// Collect runs a full mark-and-sweep pass over the VM's heap. Not part of
// spec.md's external API. Neither the interpreter nor the CLI triggers a
// collection, so one runs only when an embedder or test harness calls
// this.
func (v *VM) Collect() heap.Stats {
	return v.Heap.Collect()
}
