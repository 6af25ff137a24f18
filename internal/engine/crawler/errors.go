package crawler

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrCrawlAborted matches any *AbortedError via errors.Is.
var ErrCrawlAborted = eris.New("crawler: crawl aborted")

// AbortedError is returned when a run cannot produce anything meaningful:
// there were no seeds, or every oracle query failed.
type AbortedError struct {
	Reason   string
	Failures int64
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("crawler: crawl aborted: %s (%d failed queries)", e.Reason, e.Failures)
}

func (e *AbortedError) Is(target error) bool {
	return target == ErrCrawlAborted
}
