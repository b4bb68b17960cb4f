package interpreter

// outcome classifies what a single dispatched action did to control flow.
type outcome int

const (
	// outcomeContinue means execution proceeds to the next action in the
	// same frame (the overwhelming majority of opcodes).
	outcomeContinue outcome = iota
	// outcomeReturn means the frame is done; the accompanying value is its
	// result.
	outcomeReturn
	// outcomeThrow means a Throw action fired; the accompanying value is
	// what was thrown, to be matched against the frame's try stack by the
	// caller.
	outcomeThrow
)
