package audio

import (
	"context"
	"sync"
	"time"

	"Musga/logger"
)

// JobState tracks a processing job through its lifecycle.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job asks the pipeline to derive duration and a preview for one upload.
type Job struct {
	VocalID    int64
	MasterPath string
	PreviewDir string
}

// Result is delivered to the pipeline's handler when a job finishes.
type Result struct {
	VocalID     int64
	Duration    int
	PreviewPath string
	Err         error
}

// Pipeline runs asset processing off the request path on a small worker pool.
// Uploads are recorded as processing and flipped by the result handler, so a
// hung external process never blocks an HTTP request.
type Pipeline struct {
	processor Processor
	timeout   time.Duration
	handle    func(Result)

	jobs   chan Job
	states sync.Map // vocalID -> JobState
	wg     sync.WaitGroup
}

// NewPipeline starts workers goroutines consuming the job queue. handle is
// invoked once per job with the outcome.
func NewPipeline(processor Processor, timeout time.Duration, workers int, handle func(Result)) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{
		processor: processor,
		timeout:   timeout,
		handle:    handle,
		jobs:      make(chan Job, 64),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues a job. Blocks only if the queue is full.
func (p *Pipeline) Submit(job Job) {
	p.states.Store(job.VocalID, JobQueued)
	p.jobs <- job
}

// State reports the last known state for a vocal's job.
func (p *Pipeline) State(vocalID int64) (JobState, bool) {
	v, ok := p.states.Load(vocalID)
	if !ok {
		return "", false
	}
	return v.(JobState), true
}

// Shutdown stops accepting jobs and waits for in-flight work to finish.
func (p *Pipeline) Shutdown() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.states.Store(job.VocalID, JobRunning)
		res := p.run(job)
		if res.Err != nil {
			p.states.Store(job.VocalID, JobFailed)
			logger.Error("asset processing failed",
				logger.Int64("vocalId", job.VocalID),
				logger.ErrorField(res.Err))
		} else {
			p.states.Store(job.VocalID, JobDone)
			logger.Info("asset processing finished",
				logger.Int64("vocalId", job.VocalID),
				logger.Int("duration", res.Duration),
				logger.String("preview", res.PreviewPath))
		}
		p.handle(res)
	}
}

// run executes one job under the configured timeout.
func (p *Pipeline) run(job Job) Result {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	res := Result{VocalID: job.VocalID}

	duration, err := p.processor.ProbeDuration(ctx, job.MasterPath)
	if err != nil {
		res.Err = err
		return res
	}
	res.Duration = duration

	previewPath, err := p.processor.ExtractPreview(ctx, job.MasterPath, job.PreviewDir)
	if err != nil {
		res.Err = err
		return res
	}
	res.PreviewPath = previewPath

	return res
}
