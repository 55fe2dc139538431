package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSearchPattern_CaseInsensitive(t *testing.T) {
	re, err := CompileSearchPattern("bert")
	require.NoError(t, err)
	assert.True(t, re.MatchString("org/BERT-base"))
	assert.False(t, re.MatchString("org/gpt2"))
}

func TestCompileSearchPattern_Empty(t *testing.T) {
	_, err := CompileSearchPattern("   ")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCompileSearchPattern_TooLong(t *testing.T) {
	_, err := CompileSearchPattern(strings.Repeat("a", 257))
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCompileSearchPattern_HugeRepetition(t *testing.T) {
	for _, pattern := range []string{"a{1,99999}", "a{99999}", "(a{1,500}){1,99999}"} {
		_, err := CompileSearchPattern(pattern)
		assert.ErrorIs(t, err, ErrInvalidPattern, pattern)
	}
}

func TestCompileSearchPattern_ModestRepetitionAllowed(t *testing.T) {
	re, err := CompileSearchPattern("a{1,20}b")
	require.NoError(t, err)
	assert.True(t, re.MatchString("aaab"))
}

func TestCompileSearchPattern_DeepNesting(t *testing.T) {
	_, err := CompileSearchPattern("((((a))))")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCompileSearchPattern_Unparseable(t *testing.T) {
	_, err := CompileSearchPattern("[unclosed")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
