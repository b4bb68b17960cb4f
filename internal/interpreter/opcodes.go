package interpreter

import (
	"github.com/open-flash/avmore-go/internal/bytecode"
	"github.com/open-flash/avmore-go/internal/values"
)

// exec dispatches a single decoded action against frame, matching spec.md
// §4.3 "Dispatch": a direct switch, each opcode a self-contained routine
// popping zero or more operands and pushing zero or one result.
func (m *Machine) exec(frame *Frame, a bytecode.Action) (outcome, values.Value, error) {
	switch a.Kind {
	case bytecode.ActionAdd:
		return m.execAdd(frame)
	case bytecode.ActionAdd2:
		return m.execAdd2(frame)
	case bytecode.ActionSubtract:
		return m.execSubtract(frame)
	case bytecode.ActionMultiply:
		return m.execMultiply(frame)
	case bytecode.ActionDivide:
		return m.execDivide(frame)
	case bytecode.ActionModulo:
		return m.execModulo(frame)
	case bytecode.ActionIncrement:
		return m.execIncrement(frame)
	case bytecode.ActionDecrement:
		return m.execDecrement(frame)
	case bytecode.ActionBitAnd:
		return m.execBitwise(frame, func(l, r int32) int32 { return l & r })
	case bytecode.ActionBitOr:
		return m.execBitwise(frame, func(l, r int32) int32 { return l | r })
	case bytecode.ActionBitXor:
		return m.execBitwise(frame, func(l, r int32) int32 { return l ^ r })
	case bytecode.ActionBitLShift:
		return m.execShift(frame, true, false)
	case bytecode.ActionBitRShift:
		return m.execShift(frame, false, true)
	case bytecode.ActionBitURShift:
		return m.execShift(frame, false, false)

	case bytecode.ActionAnd:
		return m.execAnd(frame)
	case bytecode.ActionOr:
		return m.execOr(frame)
	case bytecode.ActionNot:
		return m.execNot(frame)
	case bytecode.ActionEquals:
		return m.execEquals(frame)
	case bytecode.ActionEquals2:
		return m.execEquals2(frame)
	case bytecode.ActionStrictEquals:
		return m.execStrictEquals(frame)
	case bytecode.ActionLess:
		return m.execLess(frame)
	case bytecode.ActionLess2:
		return m.execLess2(frame)
	case bytecode.ActionGreater:
		return m.execGreater(frame)
	case bytecode.ActionStringEquals:
		return m.execStringEquals(frame)
	case bytecode.ActionStringLess:
		return m.execStringLess(frame)
	case bytecode.ActionStringGreater:
		return m.execStringGreater(frame)

	case bytecode.ActionPush:
		return m.execPush(frame, a)
	case bytecode.ActionPop:
		frame.Pop()
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionPushDuplicate:
		frame.Push(frame.Peek())
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionStackSwap:
		x, y := frame.Pop(), frame.Pop()
		frame.Push(x)
		frame.Push(y)
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionStoreRegister:
		frame.setRegister(int(a.Register), frame.Peek())
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionConstantPool:
		if err := m.SetConstantPool(a.Constants); err != nil {
			return outcomeContinue, values.Undefined, err
		}
		return outcomeContinue, values.Undefined, nil

	case bytecode.ActionGetVariable:
		return m.execGetVariable(frame)
	case bytecode.ActionSetVariable:
		return m.execSetVariable(frame)
	case bytecode.ActionDefineLocal:
		return m.execDefineLocal(frame)
	case bytecode.ActionDefineLocal2:
		return m.execDefineLocal2(frame)
	case bytecode.ActionGetMember:
		return m.execGetMember(frame)
	case bytecode.ActionSetMember:
		return m.execSetMember(frame)
	case bytecode.ActionDelete:
		return m.execDelete(frame)
	case bytecode.ActionDelete2:
		return m.execDelete2(frame)
	case bytecode.ActionTargetPath:
		return m.execTargetPath(frame)
	case bytecode.ActionCastOp:
		return m.execCastOp(frame)
	case bytecode.ActionInstanceOf:
		return m.execInstanceOf(frame)
	case bytecode.ActionExtends:
		return m.execExtends(frame)
	case bytecode.ActionImplementsOp:
		return m.execImplementsOp(frame)
	case bytecode.ActionEnumerate:
		return m.execEnumerate(frame)
	case bytecode.ActionEnumerate2:
		return m.execEnumerate2(frame)

	case bytecode.ActionInitObject:
		return m.execInitObject(frame)
	case bytecode.ActionInitArray:
		return m.execInitArray(frame)
	case bytecode.ActionNewObject:
		return m.execNewObject(frame)
	case bytecode.ActionNewMethod:
		return m.execNewMethod(frame)

	case bytecode.ActionDefineFunction:
		return m.execDefineFunction(frame, a)
	case bytecode.ActionDefineFunction2:
		return m.execDefineFunction2(frame, a)
	case bytecode.ActionCallFunction:
		return m.execCallFunction(frame)
	case bytecode.ActionCallMethod:
		return m.execCallMethod(frame)
	case bytecode.ActionCall:
		return m.execCall(frame)
	case bytecode.ActionReturn:
		return outcomeReturn, frame.Pop(), nil

	case bytecode.ActionIf:
		return m.execIf(frame, a)
	case bytecode.ActionJump:
		m.jump(frame, a.Offset)
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionTry:
		return m.execTry(frame, a)
	case bytecode.ActionThrow:
		return outcomeThrow, frame.Pop(), nil

	case bytecode.ActionStringAdd:
		return m.execStringAdd(frame)
	case bytecode.ActionStringLength, bytecode.ActionMBStringLength:
		return m.execStringLength(frame)
	case bytecode.ActionStringExtract, bytecode.ActionMBStringExtract:
		return m.execStringExtract(frame)
	case bytecode.ActionCharToAscii, bytecode.ActionMBCharToAscii:
		return m.execCharToAscii(frame)
	case bytecode.ActionAsciiToChar, bytecode.ActionMBAsciiToChar:
		return m.execAsciiToChar(frame)

	case bytecode.ActionTrace:
		return m.execTrace(frame)
	case bytecode.ActionTypeOf:
		return m.execTypeOf(frame)
	case bytecode.ActionToInteger:
		return m.execToInteger(frame)
	case bytecode.ActionToNumber:
		return m.execToNumber(frame)
	case bytecode.ActionToString:
		return m.execToString(frame)
	case bytecode.ActionGetTime:
		frame.Push(values.Number(0))
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionRandomNumber:
		return m.execRandomNumber(frame)

	// Timeline/display-list/network opcodes are out of scope (spec.md §1
	// Non-goals: "display-list, timeline, or rendering APIs"); each still
	// balances the operand stack the way the real player's bytecode
	// expects so that well-formed SWF8 action streams decode and execute
	// without desyncing the stack, but performs no observable effect.
	// FsCommand2 leaves the operand stack untouched.
	case bytecode.ActionNextFrame, bytecode.ActionPrevFrame, bytecode.ActionPlay,
		bytecode.ActionStop, bytecode.ActionStopSounds, bytecode.ActionToggleQuality:
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionGotoFrame, bytecode.ActionGotoLabel, bytecode.ActionWaitForFrame:
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionGotoFrame2, bytecode.ActionWaitForFrame2:
		frame.Pop() // frame
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionSetTarget:
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionSetTarget2:
		frame.Pop() // target
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionGetProperty:
		frame.Pop() // index
		frame.Pop() // target
		frame.Push(values.Undefined)
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionSetProperty:
		frame.Pop() // value
		frame.Pop() // index
		frame.Pop() // target
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionCloneSprite:
		frame.Pop()
		frame.Pop()
		frame.Pop()
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionRemoveSprite:
		frame.Pop()
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionStartDrag:
		frame.Pop() // target
		frame.Pop() // lock center
		if frame.Pop().ToBoolean() { // constrain
			frame.Pop()
			frame.Pop()
			frame.Pop()
			frame.Pop()
		}
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionEndDrag:
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionGetUrl2:
		frame.Pop() // target
		frame.Pop() // url
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionGetUrl, bytecode.ActionFsCommand2:
		return outcomeContinue, values.Undefined, nil
	case bytecode.ActionWith:
		return outcomeContinue, values.Undefined, nil

	case bytecode.ActionUnknown:
		m.Logger.Debug("unknown opcode, skipping", "tag", a.RawTag)
		return outcomeContinue, values.Undefined, nil
	}
	m.Logger.Debug("unhandled recognized opcode, skipping", "kind", a.Kind)
	return outcomeContinue, values.Undefined, nil
}

// jump applies a signed 16-bit control-flow delta to frame.IP using
// saturating arithmetic, so an out-of-range jump clamps to the buffer
// boundary instead of wrapping (spec.md §4.3 "Control flow").
func (m *Machine) jump(frame *Frame, offset int16) {
	next := frame.IP + int(offset)
	if next < 0 {
		next = 0
	}
	if next > len(frame.Code) {
		next = len(frame.Code)
	}
	frame.IP = next
}

func (m *Machine) execIf(frame *Frame, a bytecode.Action) (outcome, values.Value, error) {
	cond := frame.Pop()
	if cond.ToBoolean() {
		m.jump(frame, a.Offset)
	}
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execTry(frame *Frame, a bytecode.Action) (outcome, values.Value, error) {
	tryStart := frame.IP
	catchStart := tryStart + a.TryBody
	catchEnd := catchStart + a.CatchBody
	finallyStart := catchEnd
	finallyEnd := finallyStart + a.FinallyBody
	frame.tryStack = append(frame.tryStack, tryEntry{
		phase:           phaseTry,
		tryEnd:          catchStart,
		catchStart:      catchStart,
		catchEnd:        catchEnd,
		finallyStart:    finallyStart,
		finallyEnd:      finallyEnd,
		hasCatch:        a.CatchBody > 0,
		hasFinally:      a.FinallyBody > 0,
		catchName:       a.CatchName,
		catchInRegister: a.CatchInRegister,
		catchRegister:   a.Register,
	})
	return outcomeContinue, values.Undefined, nil
}
