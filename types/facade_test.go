package types

import (
	"testing"

	"github.com/kowalski-labs/tyshemo/proto"
	"github.com/kowalski-labs/tyshemo/tyerror"
	"github.com/stretchr/testify/assert"
)

func TestTy_ExpectPanicsOnMismatch(t *testing.T) {
	assert.NotPanics(t, func() {
		Ty.Expect("hi").To.Match(proto.String)
	})
	assert.Panics(t, func() {
		Ty.Expect(5).To.Match(proto.String)
	})
}

func TestTy_CatchReturnsError(t *testing.T) {
	assert.Nil(t, Ty.Catch(5).By(proto.Number))
	err := Ty.Catch("x").By(proto.Number)
	assert.NotNil(t, err)
}

func TestTy_TraceSettlesImmediately(t *testing.T) {
	var caught *tyerror.TyError
	Ty.Trace("x").By(proto.Number).Catch(func(e *tyerror.TyError) {
		caught = e
	})
	assert.NotNil(t, caught)
}

func TestTy_TrackBlocksUntilDone(t *testing.T) {
	var caught *tyerror.TyError
	Ty.Track("x").By(proto.Number).Catch(func(e *tyerror.TyError) {
		caught = e
	})
	assert.NotNil(t, caught)
}

func TestTy_IsDelegatesToProto(t *testing.T) {
	assert.True(t, Ty.Is(proto.String).Typeof("hi"))
}
