package cloud

import "fmt"

// LookupError means instance metadata or group membership could not be
// determined. NotFound distinguishes "the service answered but has no data"
// from "the service was unreachable after retries". Both are fatal for the
// run.
type LookupError struct {
	Op       string
	Err      error
	NotFound bool
}

func (e *LookupError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("could not find %s", e.Op)
	}
	return fmt.Sprintf("could not look up %s: %v", e.Op, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// SubmissionError means CloudWatch rejected or did not acknowledge the
// batch. The run aborts without retry; the next scheduled invocation is the
// retry mechanism.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("could not send data to CloudWatch - use --verbose for more information: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
