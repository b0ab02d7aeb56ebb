package metrics

import (
	"context"
	"time"
)

// jobFunction alias is private and should be used only here
type jobFunction = func(ctx context.Context) error

func RecordJobDuration(job string, f jobFunction) jobFunction {
	return func(ctx context.Context) error {
		startTime := time.Now()
		err := f(ctx)
		duration := time.Since(startTime).Seconds()

		jobDurationHistogram.WithLabelValues(job, outcome(err != nil).String()).Observe(duration)

		return err
	}
}
