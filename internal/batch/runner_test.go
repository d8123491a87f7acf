package batch

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/model"
)

func TestRun_CountsOutcomes(t *testing.T) {
	items := []string{"ok1", "thin", "broken", "ok2"}

	summary, err := Run(context.Background(), "test", items,
		func(s string) string { return s },
		func(_ context.Context, s string) error {
			switch s {
			case "thin":
				return eris.Wrap(model.ErrUnavailable, "no data")
			case "broken":
				return eris.New("boom")
			default:
				return nil
			}
		})
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 4, Succeeded: 2, Unavailable: 1, Failed: 1}, summary)
}

func TestRun_FailureDoesNotStopRun(t *testing.T) {
	items := []int{1, 2, 3}
	var seen []int

	_, err := Run(context.Background(), "test", items,
		func(i int) string { return "item" },
		func(_ context.Context, i int) error {
			seen = append(seen, i)
			if i == 1 {
				return eris.New("first fails")
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRun_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	_, err := Run(ctx, "test", []int{1, 2, 3},
		func(i int) string { return "item" },
		func(_ context.Context, i int) error {
			calls++
			cancel()
			return nil
		})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_Empty(t *testing.T) {
	summary, err := Run(context.Background(), "test", nil,
		func(struct{}) string { return "" },
		func(context.Context, struct{}) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}
