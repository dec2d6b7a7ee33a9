package cause

import (
	"reflect"

	"github.com/on-the-ground/effect_ive_runtime/fiberid"
)

// Fold collapses the cause tree bottom-up.
func Fold[E, Z any](
	c Cause[E],
	onEmpty func() Z,
	onFail func(E) Z,
	onDie func(any) Z,
	onInterrupt func(fiberid.ID) Z,
	onThen func(Z, Z) Z,
	onBoth func(Z, Z) Z,
) Z {
	var fold func(node) Z
	fold = func(n node) Z {
		switch n := n.(type) {
		case failNode:
			e, _ := n.err.(E)
			return onFail(e)
		case dieNode:
			return onDie(n.defect)
		case interruptNode:
			return onInterrupt(n.id)
		case thenNode:
			return onThen(fold(n.left), fold(n.right))
		case bothNode:
			return onBoth(fold(n.left), fold(n.right))
		default:
			return onEmpty()
		}
	}
	return fold(c.root)
}

// Map transforms every typed failure, keeping the shape of the tree.
func Map[E, E2 any](c Cause[E], f func(E) E2) Cause[E2] {
	return Fold(c,
		Empty[E2],
		func(e E) Cause[E2] { return Fail(f(e)) },
		Die[E2],
		Interrupt[E2],
		Then[E2],
		Both[E2],
	)
}

// Equal compares causes up to the associativity of Then and Both.
func Equal[E any](a, b Cause[E]) bool {
	return reflect.DeepEqual(normalize(a.root), normalize(b.root))
}

type normalized struct {
	kind     string
	leaf     any
	children []normalized
}

func normalize(n node) normalized {
	switch n := n.(type) {
	case failNode:
		return normalized{kind: "fail", leaf: n.err}
	case dieNode:
		return normalized{kind: "die", leaf: n.defect}
	case interruptNode:
		return normalized{kind: "interrupt", leaf: n.id}
	case thenNode:
		return normalized{kind: "then", children: flatten(n, isThen)}
	case bothNode:
		return normalized{kind: "both", children: flatten(n, isBoth)}
	default:
		return normalized{kind: "empty"}
	}
}

func isThen(n node) (node, node, bool) {
	t, ok := n.(thenNode)
	return t.left, t.right, ok
}

func isBoth(n node) (node, node, bool) {
	b, ok := n.(bothNode)
	return b.left, b.right, ok
}

func flatten(n node, split func(node) (node, node, bool)) []normalized {
	left, right, ok := split(n)
	if !ok {
		return []normalized{normalize(n)}
	}
	return append(flatten(left, split), flatten(right, split)...)
}
