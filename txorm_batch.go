package txorm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

/*
Compiles independent expressions concurrently, each with its own state.
Results are in input order. Stops at the first failure or when the context is
canceled. The compiler must not be mutated while this runs.
*/
func CompileAll(ctx context.Context, comp *Compiler, exprs []any) ([]Statement, error) {
	out := make([]Statement, len(exprs))
	group, ctx := errgroup.WithContext(ctx)

	for ind, expr := range exprs {
		ind, expr := ind, expr
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stmt, err := comp.Statement(expr)
			if err != nil {
				return err
			}
			out[ind] = stmt
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
