package worker

import (
	"context"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
	"github.com/ppiankov/claimtriage/internal/pipeline"
)

// Triager triages one transcript
type Triager interface {
	Triage(ctx context.Context, id string, t model.TranscriptRecord) (*pipeline.Result, error)
}

// TriageJob triages one submission of a batch
type TriageJob struct {
	Index      int
	Submission pipeline.Submission
	Triager    Triager
}

// Run triages the submission; it is a Task for a Pool of *TriageResult
func (j *TriageJob) Run(ctx context.Context) *TriageResult {
	start := time.Now()
	result, err := j.Triager.Triage(ctx, j.Submission.ClaimID, j.Submission.TranscriptRecord)
	return &TriageResult{
		Index:    j.Index,
		ClaimID:  claimID(j.Submission, result),
		Result:   result,
		Error:    err,
		Duration: time.Since(start),
	}
}

func claimID(s pipeline.Submission, r *pipeline.Result) string {
	if r != nil && r.Record != nil {
		return r.Record.ID
	}
	return s.ClaimID
}

// TriageResult is the outcome of one batch entry
type TriageResult struct {
	Index    int
	ClaimID  string
	Result   *pipeline.Result
	Error    error
	Duration time.Duration
}

// BatchProcessor triages many submissions concurrently
type BatchProcessor struct {
	triager     Triager
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(triager Triager, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		triager:     triager,
		concurrency: concurrency,
	}
}

// Process triages every submission and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, subs []pipeline.Submission) []*TriageResult {
	if len(subs) == 0 {
		return []*TriageResult{}
	}

	pool := NewPool[*TriageResult](ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, s := range subs {
			job := &TriageJob{Index: i, Submission: s, Triager: b.triager}
			if !pool.Submit(job.Run) {
				break
			}
		}
		pool.Close()
	}()

	ordered := make([]*TriageResult, len(subs))
	for tr := range pool.Results() {
		ordered[tr.Index] = tr
	}

	// Entries never run when ctx was canceled first
	for i, tr := range ordered {
		if tr == nil {
			ordered[i] = &TriageResult{Index: i, ClaimID: subs[i].ClaimID, Error: ctx.Err()}
		}
	}
	return ordered
}

// Summary counts batch outcomes
type Summary struct {
	Total     int                  `json:"total"`
	Failed    int                  `json:"failed"`
	Escalated int                  `json:"escalated"`
	ByAction  map[model.Action]int `json:"by_action"`
	ByLevel   map[model.Level]int  `json:"by_level"`
}

// Summarize tallies batch results
func Summarize(results []*TriageResult) Summary {
	s := Summary{
		Total:    len(results),
		ByAction: make(map[model.Action]int),
		ByLevel:  make(map[model.Level]int),
	}
	for _, r := range results {
		if r.Error != nil || r.Result == nil {
			s.Failed++
			continue
		}
		if r.Result.Decision.ShouldEscalate {
			s.Escalated++
		}
		s.ByAction[r.Result.Decision.Action]++
		s.ByLevel[r.Result.Complexity.Level]++
	}
	return s
}
