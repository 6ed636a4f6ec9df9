package watermarks

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, job string) (time.Time, error)
	Advance(ctx context.Context, job string, mark time.Time) error
}
