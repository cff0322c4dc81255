package tasks

import (
	"context"
	"testing"

	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// TestDispatchUnsupportedJobTypeIsNoopSuccess covers JobResilver and
// JobS3Cleanup, neither of which has a handler table entry: both must
// behave like any other unregistered job type (warn, no output, no error),
// not silently alias onto a different job type's handler.
func TestDispatchUnsupportedJobTypeIsNoopSuccess(t *testing.T) {
	for _, jobType := range []scheduler.JobType{scheduler.JobResilver, scheduler.JobS3Cleanup} {
		handler := Dispatch(&Deps{}, nil)
		job := &scheduler.Job{ID: "job-1", Type: jobType}

		out, err := handler(context.Background(), job)
		if err != nil {
			t.Errorf("job type %v: unexpected error: %v", jobType, err)
		}
		if out != "" {
			t.Errorf("job type %v: expected empty output, got %q", jobType, out)
		}
	}
}
