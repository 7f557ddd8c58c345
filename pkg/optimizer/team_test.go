package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crk-toppings/optimizer/internal/progress"
	"github.com/crk-toppings/optimizer/pkg/requirements"
	"github.com/crk-toppings/optimizer/pkg/topping"
)

// Seed scenario 6 (spec.md §8): a multi-cookie team, each succeeding.
// Final residual inventory = initial minus the union of chosen sets, size
// decreased by exactly 5 per solved cookie, no item double-counted.
func TestTeamInventoryConservation(t *testing.T) {
	set, err := requirements.Load([]byte(`
cookies:
  - name: First
    requirements:
      - max: ATK
  - name: Second
    requirements:
      - max: ATK
`))
	require.NoError(t, err)

	inventory := make([]topping.Topping, 0, 10)
	for i := 0; i < 10; i++ {
		inventory = append(inventory, atk("9"))
	}
	initialLen := len(inventory)

	team := NewTeam()
	result, err := team.Solve(context.Background(), &inventory, set)
	require.NoError(t, err)

	require.Len(t, result.Cookies, 2)
	for _, outcome := range result.Cookies {
		assert.Equal(t, OutcomeSolved, outcome.Result.Outcome)
	}
	assert.Empty(t, result.Stopped)
	assert.Equal(t, initialLen-10, len(inventory))
}

// A single failed cookie stops the team (spec.md §7): no later cookie
// runs, and the caller can see exactly which cookie stopped it.
func TestTeamStopsAtFirstFailure(t *testing.T) {
	set, err := requirements.Load([]byte(`
cookies:
  - name: Impossible
    requirements:
      - "Cooldown >= 10"
      - max: ATK
  - name: NeverReached
    requirements:
      - max: ATK
`))
	require.NoError(t, err)

	inventory := []topping.Topping{atk("9"), atk("9"), atk("9"), atk("9"), atk("9")}
	team := NewTeam()
	result, err := team.Solve(context.Background(), &inventory, set)
	require.NoError(t, err)

	assert.Equal(t, "Impossible", result.Stopped)
	require.Len(t, result.Cookies, 1)
	assert.Equal(t, 5, len(inventory)) // nothing removed on failure
}

// Seed scenario 5 (spec.md §8): cancellation. Pre-cancelling the shared
// channel before the search starts must surface OutcomeCancelled rather
// than hang or silently report NoFeasibleSolution.
func TestCancellationSurfacesAsCancelledOutcome(t *testing.T) {
	reqs := loadOne(t, `
cookies:
  - name: Rye
    requirements:
      - max: ATK
`)
	channel := progress.New()
	channel.RequestCancel()

	inventory := []topping.Topping{atk("9"), atk("9"), atk("9"), atk("9"), atk("9")}
	opt := New(reqs, WithProgressChannel(channel))
	result, err := opt.Solve(context.Background(), inventory)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.False(t, result.HasSet)
}
