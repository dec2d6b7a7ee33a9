// Package cause models why a computation did not succeed.
//
// A Cause is an immutable tree. Leaves record a typed failure (Fail), an unexpected
// defect (Die) or a cooperative cancellation (Interrupt). Inner nodes compose causes
// sequentially (Then) or in parallel (Both). Combining causes never discards either side;
// Then and Both are associative and Empty is their identity.
//
// The tree is kept intact until a caller decides how to report it, for example with
// Squash (a single representative error) or Err (every leaf combined).
package cause

import (
	"fmt"
	"strings"

	"github.com/on-the-ground/effect_ive_runtime/fiberid"
)

type node interface {
	causeNode()
}

type failNode struct{ err any }

type dieNode struct{ defect any }

type interruptNode struct{ id fiberid.ID }

type thenNode struct{ left, right node }

type bothNode struct{ left, right node }

func (failNode) causeNode()      {}
func (dieNode) causeNode()       {}
func (interruptNode) causeNode() {}
func (thenNode) causeNode()      {}
func (bothNode) causeNode()      {}

// Cause is the reason a computation failing with errors of type E did not succeed.
// The zero value is Empty.
type Cause[E any] struct {
	root node
}

// Empty is the cause of nothing. It is the identity of Then and Both.
func Empty[E any]() Cause[E] {
	return Cause[E]{}
}

// Fail is an expected, typed failure.
func Fail[E any](err E) Cause[E] {
	return Cause[E]{root: failNode{err: err}}
}

// Die is an unexpected defect, such as a panic raised by user code.
func Die[E any](defect any) Cause[E] {
	return Cause[E]{root: dieNode{defect: defect}}
}

// Interrupt records that the computation was cancelled by the given fiber.
func Interrupt[E any](by fiberid.ID) Cause[E] {
	return Cause[E]{root: interruptNode{id: by}}
}

// Then composes two causes that happened one after the other.
func Then[E any](left, right Cause[E]) Cause[E] {
	switch {
	case left.root == nil:
		return right
	case right.root == nil:
		return left
	}
	return Cause[E]{root: thenNode{left: left.root, right: right.root}}
}

// Both composes two causes that happened concurrently.
func Both[E any](left, right Cause[E]) Cause[E] {
	switch {
	case left.root == nil:
		return right
	case right.root == nil:
		return left
	}
	return Cause[E]{root: bothNode{left: left.root, right: right.root}}
}

// Erase forgets the failure type. Every Fail leaf keeps its value.
func Erase[E any](c Cause[E]) Cause[any] {
	return Cause[any]{root: c.root}
}

// Narrow restores the failure type of an erased cause.
// Every Fail leaf of c must hold a value of type E; causes without Fail leaves
// (defects and interruptions only) can be narrowed to any type.
func Narrow[E any](c Cause[any]) Cause[E] {
	return Cause[E]{root: c.root}
}

// IsEmpty reports whether the cause has no leaves.
func (c Cause[E]) IsEmpty() bool {
	return !c.any(func(node) bool { return true })
}

// IsFailure reports whether the cause contains a typed failure.
func (c Cause[E]) IsFailure() bool {
	return c.any(func(n node) bool { _, ok := n.(failNode); return ok })
}

// IsDie reports whether the cause contains a defect.
func (c Cause[E]) IsDie() bool {
	return c.any(func(n node) bool { _, ok := n.(dieNode); return ok })
}

// IsInterrupted reports whether the cause contains an interruption.
func (c Cause[E]) IsInterrupted() bool {
	return c.any(func(n node) bool { _, ok := n.(interruptNode); return ok })
}

// IsInterruptedOnly reports whether the cause consists of interruptions and nothing else.
// Supervision uses it to tell deliberate cancellation apart from real failure.
func (c Cause[E]) IsInterruptedOnly() bool {
	return c.IsInterrupted() && !c.IsFailure() && !c.IsDie()
}

// Failures lists the typed failures from left to right.
func (c Cause[E]) Failures() []E {
	var out []E
	c.walk(func(n node) {
		if f, ok := n.(failNode); ok {
			e, _ := f.err.(E)
			out = append(out, e)
		}
	})
	return out
}

// Defects lists the defects from left to right.
func (c Cause[E]) Defects() []any {
	var out []any
	c.walk(func(n node) {
		if d, ok := n.(dieNode); ok {
			out = append(out, d.defect)
		}
	})
	return out
}

// Interruptors lists the distinct fibers that interrupted the computation.
func (c Cause[E]) Interruptors() []fiberid.ID {
	var out []fiberid.ID
	seen := map[fiberid.ID]struct{}{}
	c.walk(func(n node) {
		if i, ok := n.(interruptNode); ok {
			if _, dup := seen[i.id]; !dup {
				seen[i.id] = struct{}{}
				out = append(out, i.id)
			}
		}
	})
	return out
}

// FailureOption returns the first typed failure, if any.
func (c Cause[E]) FailureOption() (E, bool) {
	var (
		first E
		found bool
	)
	c.walk(func(n node) {
		if f, ok := n.(failNode); ok && !found {
			first, _ = f.err.(E)
			found = true
		}
	})
	return first, found
}

// StripInterrupts drops interruption leaves attributed to the given fiber.
func (c Cause[E]) StripInterrupts(by fiberid.ID) Cause[E] {
	return Fold(c,
		Empty[E],
		Fail[E],
		Die[E],
		func(id fiberid.ID) Cause[E] {
			if id == by {
				return Empty[E]()
			}
			return Interrupt[E](id)
		},
		Then[E],
		Both[E],
	)
}

func (c Cause[E]) String() string {
	var sb strings.Builder
	writeNode(&sb, c.root)
	return sb.String()
}

func writeNode(sb *strings.Builder, n node) {
	switch n := n.(type) {
	case nil:
		sb.WriteString("Empty")
	case failNode:
		fmt.Fprintf(sb, "Fail(%v)", n.err)
	case dieNode:
		fmt.Fprintf(sb, "Die(%v)", n.defect)
	case interruptNode:
		fmt.Fprintf(sb, "Interrupt(%v)", n.id)
	case thenNode:
		sb.WriteString("Then(")
		writeNode(sb, n.left)
		sb.WriteString(", ")
		writeNode(sb, n.right)
		sb.WriteString(")")
	case bothNode:
		sb.WriteString("Both(")
		writeNode(sb, n.left)
		sb.WriteString(", ")
		writeNode(sb, n.right)
		sb.WriteString(")")
	}
}

// walk visits the leaves from left to right.
// It keeps its own stack so deeply nested causes do not grow the call stack.
func (c Cause[E]) walk(visit func(node)) {
	if c.root == nil {
		return
	}
	stack := []node{c.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := n.(type) {
		case thenNode:
			stack = append(stack, n.right, n.left)
		case bothNode:
			stack = append(stack, n.right, n.left)
		default:
			visit(n)
		}
	}
}

func (c Cause[E]) any(pred func(node) bool) bool {
	found := false
	c.walk(func(n node) {
		if !found && pred(n) {
			found = true
		}
	})
	return found
}
