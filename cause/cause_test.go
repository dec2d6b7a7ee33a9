package cause_test

import (
	"errors"
	"testing"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestThenBoth_EmptyIsIdentity(t *testing.T) {
	boom := cause.Fail("boom")

	assert.Equal(t, boom, cause.Then(cause.Empty[string](), boom))
	assert.Equal(t, boom, cause.Then(boom, cause.Empty[string]()))
	assert.Equal(t, boom, cause.Both(cause.Empty[string](), boom))
	assert.Equal(t, boom, cause.Both(boom, cause.Empty[string]()))
	assert.True(t, cause.Empty[string]().IsEmpty())
	assert.False(t, boom.IsEmpty())
}

func TestEqual_Associativity(t *testing.T) {
	a, b, c := cause.Fail("a"), cause.Fail("b"), cause.Fail("c")

	assert.True(t, cause.Equal(cause.Then(cause.Then(a, b), c), cause.Then(a, cause.Then(b, c))))
	assert.True(t, cause.Equal(cause.Both(cause.Both(a, b), c), cause.Both(a, cause.Both(b, c))))
	assert.False(t, cause.Equal(cause.Then(a, b), cause.Both(a, b)))
	assert.False(t, cause.Equal(cause.Then(a, b), cause.Then(b, a)))
}

func TestCombination_KeepsBothSides(t *testing.T) {
	id := fiberid.New()
	c := cause.Then(
		cause.Both(cause.Fail("e1"), cause.Fail("e2")),
		cause.Then(cause.Die[string]("defect"), cause.Interrupt[string](id)),
	)

	assert.Equal(t, []string{"e1", "e2"}, c.Failures())
	assert.Equal(t, []any{"defect"}, c.Defects())
	assert.Equal(t, []fiberid.ID{id}, c.Interruptors())
	assert.True(t, c.IsFailure())
	assert.True(t, c.IsDie())
	assert.True(t, c.IsInterrupted())
	assert.False(t, c.IsInterruptedOnly())
	assert.Equal(t, "Then(Both(Fail(e1), Fail(e2)), Then(Die(defect), Interrupt("+id.String()+")))", c.String())
}

func TestIsInterruptedOnly(t *testing.T) {
	a, b := fiberid.New(), fiberid.New()
	c := cause.Both(cause.Interrupt[string](a), cause.Interrupt[string](b))

	assert.True(t, c.IsInterruptedOnly())
	assert.False(t, cause.Empty[string]().IsInterruptedOnly())
	assert.Equal(t, []fiberid.ID{a, b}, c.Interruptors())

	stripped := c.StripInterrupts(a)
	assert.Equal(t, cause.Interrupt[string](b), stripped)
}

func TestFailureOption(t *testing.T) {
	_, ok := cause.Die[string]("x").FailureOption()
	assert.False(t, ok)

	e, ok := cause.Then(cause.Die[string]("x"), cause.Fail("first")).FailureOption()
	require.True(t, ok)
	assert.Equal(t, "first", e)
}

func TestNilFailure_IsKeptAsZeroValue(t *testing.T) {
	c := cause.Then(cause.Fail[error](nil), cause.Die[error]("d"))

	require.NotPanics(t, func() {
		assert.Equal(t, []error{nil}, c.Failures())

		e, ok := c.FailureOption()
		assert.True(t, ok)
		assert.NoError(t, e)

		n := cause.Fold(c,
			func() int { return 0 },
			func(error) int { return 1 },
			func(any) int { return 0 },
			func(fiberid.ID) int { return 0 },
			func(l, r int) int { return l + r },
			func(l, r int) int { return l + r },
		)
		assert.Equal(t, 1, n)

		var failure *cause.FailureError
		assert.ErrorAs(t, c.Squash(), &failure)
	})
}

func TestMap(t *testing.T) {
	c := cause.Both(cause.Fail(1), cause.Then(cause.Fail(2), cause.Die[int]("d")))
	mapped := cause.Map(c, func(n int) string { return string(rune('a' + n)) })

	assert.Equal(t, []string{"b", "c"}, mapped.Failures())
	assert.Equal(t, []any{"d"}, mapped.Defects())
}

func TestEraseNarrow(t *testing.T) {
	c := cause.Then(cause.Fail("x"), cause.Die[string]("y"))
	back := cause.Narrow[string](cause.Erase(c))

	assert.Equal(t, c, back)
}

func TestSquash_Policy(t *testing.T) {
	sentinel := errors.New("sentinel")
	id := fiberid.New()

	assert.ErrorIs(t, cause.Both(cause.Die[error]("d"), cause.Fail(sentinel)).Squash(), sentinel)

	var defect *cause.DefectError
	require.ErrorAs(t, cause.Then(cause.Interrupt[error](id), cause.Die[error]("d")).Squash(), &defect)
	assert.Equal(t, "d", defect.Value)

	assert.ErrorIs(t, cause.Interrupt[error](id).Squash(), cause.ErrInterrupted)
	assert.NoError(t, cause.Empty[error]().Squash())

	var failure *cause.FailureError
	require.ErrorAs(t, cause.Fail(42).Squash(), &failure)
	assert.Equal(t, 42, failure.Value)
}

func TestErr_CombinesEveryLeaf(t *testing.T) {
	e1, e2 := errors.New("e1"), errors.New("e2")
	err := cause.Both(cause.Fail(e1), cause.Then(cause.Fail(e2), cause.Interrupt[error](fiberid.New()))).Err()

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	assert.ErrorIs(t, errs[0], e1)
	assert.ErrorIs(t, errs[1], e2)
	assert.ErrorIs(t, errs[2], cause.ErrInterrupted)
	assert.NoError(t, cause.Empty[error]().Err())
}

func TestPanicError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	pe := &cause.PanicError{Value: inner}

	assert.ErrorIs(t, pe, inner)
	assert.Equal(t, "panic: inner", pe.Error())
	assert.Nil(t, (&cause.PanicError{Value: "text"}).Unwrap())
}

func TestWalk_DeepCauseDoesNotRecurse(t *testing.T) {
	c := cause.Empty[int]()
	for i := 0; i < 100_000; i++ {
		c = cause.Then(c, cause.Fail(i))
	}

	assert.Len(t, c.Failures(), 100_000)
}
