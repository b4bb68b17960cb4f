// Package interpreter implements the AVM1 bytecode dispatch loop: call
// frames, the operand stack, scope-chain variable resolution, and the
// opcode table enumerated in spec.md §6, grounded throughout on the Rust
// port's ExecutionContext (original_source/rs/src/avm1.rs).
package interpreter

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/open-flash/avmore-go/internal/bytecode"
	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/host"
	"github.com/open-flash/avmore-go/internal/realm"
	"github.com/open-flash/avmore-go/internal/scope"
	"github.com/open-flash/avmore-go/internal/values"
)

// DefaultActionCap is the top-level driver's default per-run_to_completion
// action ceiling (spec.md §4.3 "Execution cap").
const DefaultActionCap = 1000

// Machine is the shared, single-threaded execution engine: the heap, the
// host adapter, the declared SWF version, the bootstrapped realm, the
// mutable constant pool, and the action-cap budget a run_to_completion call
// consumes from. A vm.VM embeds exactly one Machine per AVM1 VM instance.
type Machine struct {
	Heap        *heap.Heap
	Host        host.Host
	SWFVersion  uint8
	Realm       *realm.Realm
	ActionCap   int
	Logger      *slog.Logger
	ParseAction func([]byte) ([]byte, bytecode.Action, error)

	pool []heap.Ref[*values.AvmString]

	actionsRun int
	rng        *rand.Rand
}

// NewMachine wires a fresh Machine against an already-bootstrapped realm.
// ParseAction defaults to bytecode.ParseAction; callers needing a swapped-in
// decoder (per spec.md §6, the decoder is an injected collaborator) can
// override the field after construction.
func NewMachine(h *heap.Heap, hostAdapter host.Host, swfVersion uint8, rm *realm.Realm, actionCap int, logger *slog.Logger) *Machine {
	if actionCap <= 0 {
		actionCap = DefaultActionCap
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(nopWriter{}, nil))
	}
	return &Machine{
		Heap:        h,
		Host:        hostAdapter,
		SWFVersion:  swfVersion,
		Realm:       rm,
		ActionCap:   actionCap,
		Logger:      logger,
		ParseAction: bytecode.ParseAction,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedRandom fixes the source ActionRandomNumber draws from, for
// reproducible test fixtures.
func (m *Machine) SeedRandom(seed int64) { m.rng = rand.New(rand.NewSource(seed)) }

func (m *Machine) nextRandom() int64 { return m.rng.Int63() }

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// SetConstantPool installs a freshly decoded constant pool, replacing any
// previous one wholesale (spec.md §3 "Constant pool").
func (m *Machine) SetConstantPool(strs []string) error {
	pool := make([]heap.Ref[*values.AvmString], len(strs))
	for i, s := range strs {
		ref, err := heap.Alloc[*values.AvmString](m.Heap, values.NewAvmString(s))
		if err != nil {
			return err
		}
		pool[i] = ref
	}
	m.pool = pool
	return nil
}

// Constant returns the pooled string at index, or Undefined if the pool is
// unset or the index is out of bounds (spec.md §3).
func (m *Machine) Constant(index int) values.Value {
	if index < 0 || index >= len(m.pool) {
		return values.Undefined
	}
	return values.StringRef(m.pool[index])
}

// swfVersionOf returns the Machine's declared SWF version.
func (m *Machine) swfVersionOf() uint8 { return m.SWFVersion }

// machineContext adapts *Machine to values.Context/CallContext for a single
// call's `this`, so [[DefaultValue]] and host functions can call back into
// user code via Apply.
type machineContext struct {
	m    *Machine
	this values.Value
}

func (c machineContext) SWFVersion() uint8 { return c.m.SWFVersion }
func (c machineContext) This() values.Value { return c.this }

func (c machineContext) Apply(callable, this values.Value, args []values.Value) (values.Value, *values.Value, error) {
	return c.m.apply(callable, this, args)
}

// ContextWithThis returns a values.Context/CallContext bound to this, for
// host functions and [[DefaultValue]] callbacks.
func (m *Machine) ContextWithThis(this values.Value) values.CallContext {
	return machineContext{m: m, this: this}
}

func (m *Machine) apply(callable, this values.Value, args []values.Value) (values.Value, *values.Value, error) {
	if callable.Kind() != values.KindObject {
		return values.Undefined, nil, fmt.Errorf("avm1: apply of non-callable value")
	}
	fn, ok := callable.ObjectHandle().Payload().GetCallable()
	if !ok {
		return values.Undefined, nil, fmt.Errorf("avm1: apply of non-callable object")
	}
	return fn.Call(m.ContextWithThis(this), this, args)
}

// RunScript drives run_to_completion against code, starting at a scope
// rooted on the realm's global object. thrown is non-nil exactly when an
// uncaught Throw terminated execution.
func (m *Machine) RunScript(code []byte) (result values.Value, thrown *values.Value, err error) {
	heap.Root(m.Heap, m.Realm.Global) // consumed by the root scope's Alloc below
	rootScope, err := scope.NewRoot(m.Heap, m.Realm.Global)
	if err != nil {
		return values.Undefined, nil, err
	}
	m.actionsRun = 0
	frame := NewFrame(code, rootScope, values.ObjectRef(m.Realm.Global), nil)
	return m.runFrame(frame)
}

// runFrame executes frame until Return, an uncaught Throw, end-of-code, or
// the shared action cap is exhausted, whichever comes first. Reaching the
// cap terminates without error (spec.md §4.3 "Execution cap").
func (m *Machine) runFrame(frame *Frame) (values.Value, *values.Value, error) {
	for {
		if m.actionsRun >= m.ActionCap {
			m.Logger.Debug("action cap reached", "cap", m.ActionCap)
			return values.Undefined, nil, nil
		}
		if !m.resolveTryBoundaries(frame) {
			return values.Undefined, nil, nil
		}
		if frame.IP >= len(frame.Code) {
			return values.Undefined, nil, nil
		}
		rest, action, err := m.ParseAction(frame.Code[frame.IP:])
		if err != nil {
			m.Logger.Debug("decoder failure, halting frame", "error", err)
			return values.Undefined, nil, nil
		}
		consumed := len(frame.Code[frame.IP:]) - len(rest)
		frame.IP += consumed
		m.actionsRun++

		outcome, val, err := m.exec(frame, action)
		if err != nil {
			return values.Undefined, nil, err
		}
		switch outcome {
		case outcomeContinue:
			continue
		case outcomeReturn:
			return val, nil, nil
		case outcomeThrow:
			if m.catchInFrame(frame, val) {
				continue
			}
			return values.Undefined, &val, nil
		}
	}
}

// resolveTryBoundaries advances frame past any Try/Catch/Finally region
// boundaries the instruction pointer has reached without an intervening
// throw, per the phase state machine documented on tryEntry. Returns false
// only if no bytecode remains to execute (never actually happens here; kept
// bool-returning for symmetry with the caller's loop exit checks).
func (m *Machine) resolveTryBoundaries(frame *Frame) bool {
	for len(frame.tryStack) > 0 {
		top := &frame.tryStack[len(frame.tryStack)-1]
		switch top.phase {
		case phaseTry:
			if frame.IP < top.tryEnd {
				return true
			}
			m.retireRegion(frame, top)
		case phaseCatch:
			if frame.IP < top.catchEnd {
				return true
			}
			m.retireRegion(frame, top)
		case phaseFinally:
			if frame.IP < top.finallyEnd {
				return true
			}
			frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
			frame.IP = top.end()
		}
	}
	return true
}

// retireRegion is called once the try or catch region has run to completion
// without an intervening throw (a throw is instead handled by
// catchInFrame): it either enters the finally region, if one exists, or
// pops the entry entirely and jumps straight past it.
func (m *Machine) retireRegion(frame *Frame, top *tryEntry) {
	if top.hasFinally {
		top.phase = phaseFinally
		frame.IP = top.finallyStart
		return
	}
	frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
	frame.IP = top.end()
}

// catchInFrame searches frame's try stack, innermost first, for an entry
// still in its try phase (i.e. the throw happened while executing that
// region's try body) and, if found, binds thrown and resumes at its catch
// region. Returns false if nothing in this frame catches it, in which case
// the caller propagates the throw to whatever dispatched this frame (a
// CallFunction/CallMethod/NewObject opcode in the parent frame, or the top
// level if this was the root frame).
func (m *Machine) catchInFrame(frame *Frame, thrown values.Value) bool {
	for i := len(frame.tryStack) - 1; i >= 0; i-- {
		top := &frame.tryStack[i]
		if top.phase != phaseTry {
			continue
		}
		frame.tryStack = frame.tryStack[:i+1]
		if top.hasCatch {
			top.phase = phaseCatch
			if top.catchInRegister {
				frame.setRegister(int(top.catchRegister), thrown)
			} else {
				frame.Scope().DefineLocal(m.Heap, top.catchName, thrown)
			}
			frame.IP = top.catchStart
		} else if top.hasFinally {
			top.phase = phaseFinally
			frame.IP = top.finallyStart
		} else {
			frame.tryStack = frame.tryStack[:i]
			frame.IP = top.end()
			continue
		}
		return true
	}
	return false
}
