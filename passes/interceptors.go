package passes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/broady/bridgec/ast"
)

// LoggingInterceptor logs the start and end of every pass run, including
// its duration and error.
func LoggingInterceptor(logger *slog.Logger) Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, p Pass, env *Env, u *ast.CompilationUnit, next RunFunc) error {
		start := time.Now()

		logger.DebugContext(ctx, "pass started",
			slog.String("pass", p.Name()),
			slog.String("unit", u.File),
		)

		err := next(ctx, env, u)
		duration := time.Since(start)

		if err != nil {
			logger.ErrorContext(ctx, "pass failed",
				slog.String("pass", p.Name()),
				slog.String("unit", u.File),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		} else {
			logger.DebugContext(ctx, "pass completed",
				slog.String("pass", p.Name()),
				slog.String("unit", u.File),
				slog.Duration("duration", duration),
			)
		}

		return err
	}
}

// VerifyInterceptor checks the structural invariants of the unit after
// each pass and blames the pass for any violation.
func VerifyInterceptor() Interceptor {
	return func(ctx context.Context, p Pass, env *Env, u *ast.CompilationUnit, next RunFunc) error {
		if err := next(ctx, env, u); err != nil {
			return err
		}
		err := ast.Verify(u)
		var ie *ast.InternalError
		if errors.As(err, &ie) {
			return withPass(ie, p)
		}
		return err
	}
}
