package provider

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"unistream/internal/media"
)

// task is one backing-endpoint call inside a provider's fan-out.
type task struct {
	endpoint string
	fetch    func(ctx context.Context) ([]media.Stream, error)
}

// settle runs every task concurrently and waits for all of them. Slot i holds
// task i's records, or nil when it failed. Failures are logged, never returned,
// and a failing task does not cancel its siblings.
func settle(ctx context.Context, p Name, tasks ...task) [][]media.Stream {
	slots := make([][]media.Stream, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			streams, err := t.fetch(ctx)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"provider": p,
					"endpoint": t.endpoint,
				}).WithError(err).Debug("endpoint failed")
				return
			}
			slots[i] = streams
		}(i, t)
	}
	wg.Wait()

	return slots
}
