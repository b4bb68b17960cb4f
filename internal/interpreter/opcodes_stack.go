package interpreter

import (
	"github.com/open-flash/avmore-go/internal/bytecode"
	"github.com/open-flash/avmore-go/internal/values"
)

// execPush pushes each decoded Push operand, in order, resolving constant
// pool and register references against the live Machine/Frame state
// (spec.md §3 "Constant pool": an out-of-range or not-yet-installed index
// reads as Undefined).
func (m *Machine) execPush(frame *Frame, a bytecode.Action) (outcome, values.Value, error) {
	for _, pv := range a.PushValues {
		var v values.Value
		switch pv.Kind {
		case bytecode.PushString:
			sv, err := values.NewStringValue(m.Heap, pv.Str)
			if err != nil {
				return outcomeContinue, values.Undefined, err
			}
			v = sv
		case bytecode.PushFloat, bytecode.PushDouble:
			v = values.Number(pv.Num)
		case bytecode.PushInteger:
			v = values.Number(float64(pv.Int))
		case bytecode.PushNull:
			v = values.Null
		case bytecode.PushUndefined:
			v = values.Undefined
		case bytecode.PushBoolean:
			v = values.Boolean(pv.Bool)
		case bytecode.PushRegister:
			v = frame.register(pv.Index)
		case bytecode.PushConstant8, bytecode.PushConstant16:
			v = m.Constant(pv.Index)
		default:
			v = values.Undefined
		}
		frame.Push(v)
	}
	return outcomeContinue, values.Undefined, nil
}
