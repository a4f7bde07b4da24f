// Package journal analyses stored journal entries in the background.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/auracare/auracare/internal/generative"
	"github.com/auracare/auracare/internal/mood"
	"github.com/auracare/auracare/internal/storage"
)

// MaxTextLength is the longest journal entry accepted, in characters.
const MaxTextLength = 20000

// JobStore abstracts the job queue and the records a job touches.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	GetMoodLog(id string) (mood.Record, error)
	SaveJournalAnalysis(a storage.JournalAnalysis) error
}

// Analyzer reads the tone, theme and summary of a journal entry.
// generative.Adapter implements it.
type Analyzer interface {
	AnalyzeJournal(ctx context.Context, text string) generative.JournalAnalysis
	Model() string
}

// Enqueuer is the queue side needed to schedule an analysis.
type Enqueuer interface {
	EnqueueJob(job storage.Job) (string, error)
}

type analyzePayload struct {
	EntryID string `json:"entry_id"`
}

// Enqueue schedules analysis of the journal entry with the given ID and
// returns the job ID.
func Enqueue(q Enqueuer, entryID string) (string, error) {
	payload, err := json.Marshal(analyzePayload{EntryID: entryID})
	if err != nil {
		return "", err
	}
	return q.EnqueueJob(storage.Job{
		Type:        storage.JobTypeJournalAnalyze,
		PayloadJSON: string(payload),
	})
}

// Worker processes journal_analyze jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	analyzer Analyzer
	poll     time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker. If pollInterval is <= 0, it defaults to 500ms.
// A nil logger selects slog.Default().
func NewWorker(store JobStore, analyzer Analyzer, pollInterval time.Duration, logger *slog.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:    store,
		analyzer: analyzer,
		poll:     pollInterval,
		logger:   logger,
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("journal worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single journal_analyze job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{storage.JobTypeJournalAnalyze})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("journal job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload analyzePayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if payload.EntryID == "" {
		return errors.New("payload has no entry_id")
	}

	entry, err := w.store.GetMoodLog(payload.EntryID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before the worker reached it.
		w.logger.Debug("journal entry gone, skipping analysis", "entry_id", payload.EntryID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading journal entry %s: %w", payload.EntryID, err)
	}
	if !entry.Mood.IsJournal() {
		w.logger.Warn("skipping analysis of non-journal entry", "entry_id", entry.ID, "mood", entry.Mood)
		return nil
	}

	a := w.analyzer.AnalyzeJournal(ctx, entry.Notes)
	model := w.analyzer.Model()
	if a == generative.JournalFallback {
		model = ""
	}

	err = w.store.SaveJournalAnalysis(storage.JournalAnalysis{
		EntryID: entry.ID,
		Tone:    a.Tone,
		Theme:   a.Theme,
		Summary: a.Summary,
		Model:   model,
	})
	if err != nil {
		return fmt.Errorf("saving analysis for %s: %w", entry.ID, err)
	}
	return nil
}
