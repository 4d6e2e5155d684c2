package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/classtable-engine/pkg/jobs"
)

// SolveJobPayload is the jobs.Job payload type for queued solve requests.
type SolveJobPayload struct {
	Request SolveRequest
}

// AsyncSolveRunner submits solve requests to a worker-pool queue instead of
// blocking a request-serving goroutine, so batch solves run independently
// of any request loop.
type AsyncSolveRunner struct {
	solves *SolveService
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAsyncSolveRunner wires a SolveService to a jobs.Queue. The caller is
// responsible for calling queue.Start before Submit and queue.Stop on
// shutdown.
func NewAsyncSolveRunner(solves *SolveService, queue *jobs.Queue, logger *zap.Logger) *AsyncSolveRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncSolveRunner{solves: solves, queue: queue, logger: logger}
}

// Handle is the jobs.Handler invoked by the queue's workers.
func (a *AsyncSolveRunner) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(SolveJobPayload)
	if !ok {
		return fmt.Errorf("async solve job %s: unexpected payload type %T", job.ID, job.Payload)
	}
	_, proposalID, err := a.solves.Solve(ctx, payload.Request)
	if err != nil {
		return fmt.Errorf("async solve job %s: %w", job.ID, err)
	}
	a.logger.Sugar().Infow("async solve completed", "job_id", job.ID, "instance_id", payload.Request.InstanceID, "proposal_id", proposalID)
	return nil
}

// Submit enqueues a solve request for asynchronous processing.
func (a *AsyncSolveRunner) Submit(jobID string, req SolveRequest) error {
	return a.queue.Enqueue(jobs.Job{
		ID:      jobID,
		Type:    "solve",
		Payload: SolveJobPayload{Request: req},
	})
}
