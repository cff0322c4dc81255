package storage

import (
	"context"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// CLIScrubService starts a pool scrub via the zpool command line, per the
// contract `scrub <pool>` => non-zero exit means failure.
type CLIScrubService struct{}

// NewCLIScrubService returns a CLIScrubService.
func NewCLIScrubService() *CLIScrubService { return &CLIScrubService{} }

// Scrub starts a scrub of pool and returns once zpool has accepted the
// request (it does not wait for the scrub to finish — scrubs run in the
// background on the pool itself).
func (s *CLIScrubService) Scrub(ctx context.Context, pool string) error {
	_, stderr, err := runCommand(ctx, "zpool", "scrub", pool)
	if err != nil {
		return horcruxerr.InternalErr("zpool scrub %s: %v: %s", pool, err, stderr)
	}
	return nil
}
