package regalloc

import "fmt"

// OperandKind distinguishes an unallocated policy from an allocated location.
type OperandKind uint8

const (
	OperandUnallocated OperandKind = iota
	OperandRegister
	OperandStackSlot
)

// Policy is the kind of operand-policy annotation a front end attaches to a
// result or an input, before the allocator resolves it to a concrete
// location.
type Policy uint8

const (
	PolicyNone Policy = iota
	// FixedSlot is only valid on results: the location is a given negative
	// incoming-parameter stack slot, eagerly spilled.
	PolicyFixedSlot
	// FixedRegister forces allocation of a specific register, moving the
	// value there if it isn't already resident.
	PolicyFixedRegister
	// MustHaveRegister allocates any register, reusing one the value is
	// already in if possible.
	PolicyMustHaveRegister
	// SameAsInput is only valid on results: share the named input's
	// register.
	PolicySameAsInput
	// RegisterOrSlot accepts the producer's current location verbatim.
	// Only valid on inputs.
	PolicyRegisterOrSlot
	// RegisterOrSlotOrConstant is RegisterOrSlot plus an allowance for a
	// constant encoding the allocator does not otherwise act on.
	// Only valid on inputs.
	PolicyRegisterOrSlotOrConstant
)

// Operand is a tagged union: before allocation it carries an unallocated
// Policy (and the policy's parameter, if any); after allocation it carries a
// concrete register or stack-slot location. A tagged sum type is preferred
// here over a pointer-tagging trick, covering both the "unallocated
// operand" and "allocated operand" cases in one type.
type Operand struct {
	kind   OperandKind
	policy Policy
	reg    RegIndex
	slot   int32
	input  int
}

// UnallocatedFixedSlot builds a FixedSlot result policy for the given
// (negative) incoming stack-slot index.
func UnallocatedFixedSlot(slot int32) Operand {
	return Operand{kind: OperandUnallocated, policy: PolicyFixedSlot, slot: slot}
}

// UnallocatedFixedRegister builds a FixedRegister policy.
func UnallocatedFixedRegister(r RegIndex) Operand {
	return Operand{kind: OperandUnallocated, policy: PolicyFixedRegister, reg: r}
}

// UnallocatedMustHaveRegister builds a MustHaveRegister policy.
func UnallocatedMustHaveRegister() Operand {
	return Operand{kind: OperandUnallocated, policy: PolicyMustHaveRegister}
}

// UnallocatedSameAsInput builds a SameAsInput result policy referring to the
// i-th input.
func UnallocatedSameAsInput(i int) Operand {
	return Operand{kind: OperandUnallocated, policy: PolicySameAsInput, input: i}
}

// UnallocatedRegisterOrSlot builds a RegisterOrSlot input policy.
func UnallocatedRegisterOrSlot() Operand {
	return Operand{kind: OperandUnallocated, policy: PolicyRegisterOrSlot}
}

// UnallocatedRegisterOrSlotOrConstant builds a RegisterOrSlotOrConstant input
// policy.
func UnallocatedRegisterOrSlotOrConstant() Operand {
	return Operand{kind: OperandUnallocated, policy: PolicyRegisterOrSlotOrConstant}
}

// AllocatedRegister builds an allocated register operand.
func AllocatedRegister(r RegIndex) Operand {
	return Operand{kind: OperandRegister, reg: r}
}

// AllocatedStackSlot builds an allocated stack-slot operand.
func AllocatedStackSlot(slot int32) Operand {
	return Operand{kind: OperandStackSlot, slot: slot}
}

func (o Operand) IsAllocated() bool  { return o.kind != OperandUnallocated }
func (o Operand) IsRegister() bool   { return o.kind == OperandRegister }
func (o Operand) IsStackSlot() bool  { return o.kind == OperandStackSlot }
func (o Operand) Kind() OperandKind  { return o.kind }
func (o Operand) Policy() Policy     { return o.policy }
func (o Operand) Register() RegIndex { return o.reg }
func (o Operand) StackSlot() int32   { return o.slot }

// FixedRegister returns the register named by a FixedRegister policy.
func (o Operand) FixedRegister() RegIndex { return o.reg }

// FixedSlot returns the slot named by a FixedSlot policy.
func (o Operand) FixedSlot() int32 { return o.slot }

// InputIndex returns the input index named by a SameAsInput policy.
func (o Operand) InputIndex() int { return o.input }

// String implements fmt.Stringer for tracing.
func (o Operand) String() string {
	switch o.kind {
	case OperandRegister:
		return fmt.Sprintf("r%d", o.reg)
	case OperandStackSlot:
		return fmt.Sprintf("slot[%d]", o.slot)
	default:
		return fmt.Sprintf("policy(%d)", o.policy)
	}
}
