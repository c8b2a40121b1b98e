package token_management

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsedTokens_Accumulates(t *testing.T) {
	tm := NewTokenManager()

	tm.UsedTokens(100, 20)
	tm.UsedTokens(50, 5)

	total, input, output := tm.GetCurrentTokenUsage()
	assert.Equal(t, 175, total)
	assert.Equal(t, 150, input)
	assert.Equal(t, 25, output)
}

func TestCalculateCost_KnownModel(t *testing.T) {
	tm := NewTokenManager()

	// gpt-4o prices at 2.5/10.0 per million tokens.
	cost := tm.CalculateCost("openai", "gpt-4o", 1000, 1000)

	assert.InDelta(t, 0.0125, cost, 1e-9)
}

func TestCalculateCost_CaseInsensitiveModelName(t *testing.T) {
	tm := NewTokenManager()

	assert.Equal(t, tm.CalculateCost("openai", "gpt-4o", 1000, 1000), tm.CalculateCost("openai", "GPT-4o", 1000, 1000))
}

func TestCalculateCost_UnknownModelIsFree(t *testing.T) {
	tm := NewTokenManager()

	cost := tm.CalculateCost("ollama", "llama3", 100000, 100000)

	assert.Zero(t, cost)
}

func TestClearToken(t *testing.T) {
	tm := NewTokenManager()
	tm.UsedTokens(10, 10)

	tm.ClearToken()

	total, input, output := tm.GetCurrentTokenUsage()
	assert.Zero(t, total)
	assert.Zero(t, input)
	assert.Zero(t, output)
}
