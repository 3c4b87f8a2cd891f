package code

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDetailsDoesNotMutateGlobal(t *testing.T) {
	c := ErrorProvider.WithDetails("rate limited")

	assert.Equal(t, []string{"rate limited"}, c.Details())
	assert.False(t, ErrorProvider.HaveDetails())
	assert.True(t, errors.Is(c, ErrorProvider))
	assert.False(t, errors.Is(c, ErrorAPIKeyInvalid))
}

func TestMessageLanguage(t *testing.T) {
	defer SetGlobalDefaultLang("en")

	assert.Equal(t, "No notes available", ErrorNoNotes.Msg())

	assert.NoError(t, SetGlobalDefaultLang("zh_cn"))
	assert.Equal(t, "没有可用的笔记", ErrorNoNotes.Msg())

	assert.Error(t, SetGlobalDefaultLang("fr"))
	assert.Equal(t, "en", GetGlobalDefaultLang())
}

func TestNewErrorDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { NewError(ErrorNoNotes.Code(), lang{en: "dup"}) })
}
