package exit_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSucceedAndFail(t *testing.T) {
	ok := exit.Succeed[string](1)
	v, isOk := ok.Value()
	require.True(t, isOk)
	assert.Equal(t, 1, v)
	assert.True(t, ok.IsSuccess())
	assert.NoError(t, ok.Err())
	assert.True(t, ok.Cause().IsEmpty())
	assert.Equal(t, "Success(1)", ok.String())

	bad := exit.Fail[int]("boom")
	_, isOk = bad.Value()
	assert.False(t, isOk)
	assert.True(t, bad.IsFailure())
	assert.Equal(t, cause.Fail("boom"), bad.Cause())
	assert.Equal(t, "Failure(Fail(boom))", bad.String())
}

func TestInterrupt(t *testing.T) {
	id := fiberid.New()
	ex := exit.Interrupt[string, int](id)

	assert.True(t, ex.IsInterrupted())
	assert.ErrorIs(t, ex.Err(), cause.ErrInterrupted)
	assert.False(t, exit.Die[string, int]("x").IsInterrupted())
}

func TestMapAndMapError(t *testing.T) {
	assert.Equal(t, exit.Succeed[string]("2"), exit.Map(exit.Succeed[string](2), strconv.Itoa))
	assert.Equal(t, exit.Fail[string]("boom"), exit.Map(exit.Fail[int]("boom"), strconv.Itoa))

	mapped := exit.MapError(exit.Fail[int](errors.New("boom")), func(err error) string { return err.Error() })
	assert.Equal(t, exit.Fail[int]("boom"), mapped)
}

func TestZipWith(t *testing.T) {
	add := func(a, b int) int { return a + b }

	assert.Equal(t, exit.Succeed[string](3),
		exit.ZipWith(exit.Succeed[string](1), exit.Succeed[string](2), add, cause.Both[string]))
	assert.Equal(t, exit.Fail[int]("l"),
		exit.ZipWith(exit.Fail[int]("l"), exit.Succeed[string](2), add, cause.Both[string]))
	assert.Equal(t, exit.FailCause[string, int](cause.Both(cause.Fail("l"), cause.Fail("r"))),
		exit.ZipWith(exit.Fail[int]("l"), exit.Fail[int]("r"), add, cause.Both[string]))
}

func TestCollectAll(t *testing.T) {
	_, ok := exit.CollectAll[string, int]()
	assert.False(t, ok)

	all, ok := exit.CollectAll(exit.Succeed[string](1), exit.Succeed[string](2), exit.Succeed[string](3))
	require.True(t, ok)
	assert.Equal(t, exit.Succeed[string]([]int{1, 2, 3}), all)

	seq, _ := exit.CollectAll(exit.Fail[int]("a"), exit.Succeed[string](2), exit.Fail[int]("b"))
	assert.Equal(t, cause.Then(cause.Fail("a"), cause.Fail("b")), seq.Cause())

	par, _ := exit.CollectAllPar(exit.Fail[int]("a"), exit.Fail[int]("b"))
	assert.Equal(t, cause.Both(cause.Fail("a"), cause.Fail("b")), par.Cause())
}

func TestFold(t *testing.T) {
	describe := func(ex exit.Exit[string, int]) string {
		return exit.Fold(ex,
			func(c cause.Cause[string]) string { return "failed: " + c.String() },
			func(n int) string { return "got " + strconv.Itoa(n) },
		)
	}

	assert.Equal(t, "got 7", describe(exit.Succeed[string](7)))
	assert.Equal(t, "failed: Fail(x)", describe(exit.Fail[int]("x")))
}

func TestEraseNarrow(t *testing.T) {
	ok := exit.Succeed[string](5)
	assert.Equal(t, ok, exit.Narrow[string, int](exit.Erase(ok)))

	bad := exit.FailCause[string, int](cause.Then(cause.Fail("x"), cause.Die[string]("y")))
	assert.Equal(t, bad, exit.Narrow[string, int](exit.Erase(bad)))

	var nilErr error
	assert.Equal(t, exit.Succeed[string](nilErr), exit.Narrow[string, error](exit.Erase(exit.Succeed[string](nilErr))))
}
