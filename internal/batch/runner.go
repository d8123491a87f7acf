// Package batch runs a classification or scoring step over a set of keys,
// isolating per-key failures so one bad record never aborts the run.
package batch

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/model"
)

// Summary counts the outcomes of one batch run.
type Summary struct {
	Total       int
	Succeeded   int
	Unavailable int
	Failed      int
}

// Run applies fn to each item sequentially. Items that return
// model.ErrUnavailable count as unavailable (expected for thin data); any
// other error counts as failed and is logged. The run itself only errors
// when the context is cancelled.
func Run[T any](ctx context.Context, name string, items []T, describe func(T) string, fn func(context.Context, T) error) (Summary, error) {
	summary := Summary{Total: len(items)}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrapf(err, "batch: %s cancelled", name)
		}

		err := fn(ctx, item)
		switch {
		case err == nil:
			summary.Succeeded++
		case eris.Is(err, model.ErrUnavailable):
			summary.Unavailable++
			zap.L().Debug("batch item skipped, insufficient data",
				zap.String("batch", name),
				zap.String("item", describe(item)))
		default:
			summary.Failed++
			zap.L().Warn("batch item failed",
				zap.String("batch", name),
				zap.String("item", describe(item)),
				zap.Error(err))
		}
	}

	zap.L().Info("batch finished",
		zap.String("batch", name),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("unavailable", summary.Unavailable),
		zap.Int("failed", summary.Failed))
	return summary, nil
}
