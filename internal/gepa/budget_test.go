package gepa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetAccountant_CanAffordAndDec(t *testing.T) {
	b := NewBudgetAccountant(5)

	assert.True(t, b.CanAfford(5))
	assert.False(t, b.CanAfford(6))

	b.Dec(2, "execute")
	assert.Equal(t, 3, b.Remaining())
	assert.True(t, b.CanAfford(3))
	assert.False(t, b.CanAfford(4))
}

func TestBudgetAccountant_NeverGoesNegative(t *testing.T) {
	b := NewBudgetAccountant(1)
	b.Dec(5, "propose")
	assert.Equal(t, 0, b.Remaining())
}

func TestBudgetAccountant_NegativeTotalClampedToZero(t *testing.T) {
	b := NewBudgetAccountant(-10)
	assert.Equal(t, 0, b.Remaining())
	assert.False(t, b.CanAfford(1))
}

func TestBudgetAccountant_DecrementsAttributedByTag(t *testing.T) {
	b := NewBudgetAccountant(10)
	b.Dec(2, "execute")
	b.Dec(1, "muf")
	b.Dec(3, "execute")

	d := b.Decrements()
	assert.Equal(t, 5, d["execute"])
	assert.Equal(t, 1, d["muf"])
	assert.Equal(t, 4, b.Remaining())
}

func TestBudgetAccountant_EmptyTagFallsBackToUntagged(t *testing.T) {
	b := NewBudgetAccountant(10)
	b.Dec(1, "")
	assert.Equal(t, 1, b.Decrements()["untagged"])
}

func TestBudgetAccountant_MidMinibatchExhaustion(t *testing.T) {
	// budget=2, minibatch=3, mufCosts=true: 1 execute + 1 muf consumes
	// the full budget, so the third before-score call must be refused.
	b := NewBudgetAccountant(2)

	assert.True(t, b.CanAfford(1))
	b.Dec(1, "execute")
	assert.True(t, b.CanAfford(1))
	b.Dec(1, "muf")

	assert.False(t, b.CanAfford(1))
	assert.Equal(t, 0, b.Remaining())
}
