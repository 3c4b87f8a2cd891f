package service

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/miknow-notebook-service/pkg/mistral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_OrFallbackOnlyForMalformed(t *testing.T) {
	ok := Ok("value")
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Err())
	assert.Equal(t, "value", ok.OrFallback("fb"))

	bad := malformed[string]("bad reply", errors.New("eof"))
	assert.Equal(t, "fb", bad.OrFallback("fb"))
	assert.True(t, bad.Recover("fb").OK())

	auth := Fail[string](&mistral.Error{Kind: mistral.KindAuth, Message: mistral.MsgInvalidKey})
	assert.Equal(t, "", auth.OrFallback("fb"))
	assert.False(t, auth.Recover("fb").OK())
	assert.Equal(t, FailureAuth, auth.Failure.Kind)
	assert.Equal(t, mistral.MsgInvalidKey, auth.Err().Error())
}

func TestFail_ClassifiesPlainErrors(t *testing.T) {
	r := Fail[int](context.Canceled)
	require.NotNil(t, r.Failure)
	assert.Equal(t, FailureNetwork, r.Failure.Kind)
	assert.ErrorIs(t, r.Err(), context.Canceled)
}

func TestMalformed_WrapsProviderError(t *testing.T) {
	r := malformed[int]("bad", errors.New("x"))
	var me *mistral.Error
	require.ErrorAs(t, r.Err(), &me)
	assert.Equal(t, mistral.KindMalformed, me.Kind)
}
