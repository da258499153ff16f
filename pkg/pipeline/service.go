package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trialscope-ai/trialsync/pkg/common/logger"
	"github.com/trialscope-ai/trialsync/pkg/common/models"
	"github.com/trialscope-ai/trialsync/pkg/normalizer"
	"github.com/trialscope-ai/trialsync/pkg/registry"
	"github.com/trialscope-ai/trialsync/pkg/sponsor"
	"github.com/trialscope-ai/trialsync/pkg/trials"
	"gorm.io/datatypes"
)

const (
	// Output table names; the exporter appends the extension.
	AllSponsorsTable = "clinical_trials_cleaned_all_sponsors"
	FilteredTable    = "clinical_trials_sponsorFiltered"

	eventSource = "sync-service"
)

var ErrRunInProgress = errors.New("a sync run is already in progress")

// Fetcher yields one registry page per call.
type Fetcher interface {
	FetchPage(ctx context.Context, token string) (*registry.Page, error)
}

// Exporter is the table sink.
type Exporter interface {
	Write(table *trials.Table, name string) error
}

// EventPublisher emits run lifecycle events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// RunState serializes concurrent runs and caches the last run summary.
type RunState interface {
	AcquireLock(ctx context.Context, runID string) (bool, error)
	ReleaseLock(ctx context.Context) error
	SaveLastRun(ctx context.Context, summary models.RunSummary) error
}

// Service drives one sync run: paginated fetch, extraction, normalization,
// classification, and the two table exports. Repo, state, and producer are
// optional collaborators; a nil value degrades that concern to logging.
type Service struct {
	fetcher     Fetcher
	transformer *normalizer.Transformer
	homogenizer *sponsor.Homogenizer
	exporter    Exporter
	repo        *Repository
	state       RunState
	producer    EventPublisher
	maxRecords  int
}

func NewService(
	fetcher Fetcher,
	transformer *normalizer.Transformer,
	homogenizer *sponsor.Homogenizer,
	exporter Exporter,
	repo *Repository,
	state RunState,
	producer EventPublisher,
	maxRecords int,
) *Service {
	return &Service{
		fetcher:     fetcher,
		transformer: transformer,
		homogenizer: homogenizer,
		exporter:    exporter,
		repo:        repo,
		state:       state,
		producer:    producer,
		maxRecords:  maxRecords,
	}
}

// Run executes one full sync. The record accumulator lives inside the call;
// nothing carries over between runs.
func (s *Service) Run(ctx context.Context, runID string) (*models.RunSummary, error) {
	if runID == "" {
		runID = uuid.New().String()
	}

	release, err := s.acquire(ctx, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.run(ctx, runID)
}

// Begin claims the run lock before returning, then executes the sync in the
// background. A conflicting run surfaces as ErrRunInProgress here rather
// than inside the goroutine, so a trigger never acknowledges a run that
// will not happen.
func (s *Service) Begin(runID string) error {
	if runID == "" {
		runID = uuid.New().String()
	}

	release, err := s.acquire(context.Background(), runID)
	if err != nil {
		return err
	}

	go func() {
		defer release()
		if _, err := s.run(context.Background(), runID); err != nil {
			logger.Log.WithError(err).WithField("run_id", runID).Error("sync run failed")
		}
	}()
	return nil
}

// acquire claims the run lock and returns its release func. A lock backend
// error degrades to an unlocked run; only contention refuses the run.
func (s *Service) acquire(ctx context.Context, runID string) (func(), error) {
	if s.state == nil {
		return func() {}, nil
	}

	acquired, err := s.state.AcquireLock(ctx, runID)
	if err != nil {
		logger.Log.WithError(err).Warn("run lock unavailable, continuing unlocked")
		return func() {}, nil
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	return func() {
		if err := s.state.ReleaseLock(context.Background()); err != nil {
			logger.Log.WithError(err).Warn("failed to release run lock")
		}
	}, nil
}

func (s *Service) run(ctx context.Context, runID string) (*models.RunSummary, error) {
	started := time.Now().UTC()
	rec := &RunRecord{ID: runID, Status: StatusRunning, StartedAt: started}
	if s.repo != nil {
		if err := s.repo.Create(ctx, rec); err != nil {
			logger.Log.WithError(err).Warn("failed to persist run record")
		}
	}
	s.publish(ctx, "sync.started", map[string]interface{}{"run_id": runID})

	logger.Log.WithField("run_id", runID).Info("sync run started")

	records, pages, partial := s.collect(ctx)

	table := trials.NewTable(records)
	s.transformer.Preprocess(table)

	summary := models.RunSummary{
		RunID:          runID,
		PagesFetched:   pages,
		RecordsFetched: len(records),
		RecordsEmitted: table.Len(),
		StartedAt:      started,
	}

	if err := s.exporter.Write(table, AllSponsorsTable); err != nil {
		return nil, s.fail(ctx, rec, summary, fmt.Errorf("exporting %s: %w", AllSponsorsTable, err))
	}

	s.homogenizer.HomogenizeTable(table)
	filtered := s.homogenizer.FilterAllowed(table)
	summary.FilteredRows = filtered.Len()

	if err := s.exporter.Write(filtered, FilteredTable); err != nil {
		return nil, s.fail(ctx, rec, summary, fmt.Errorf("exporting %s: %w", FilteredTable, err))
	}

	summary.Status = StatusCompleted
	if partial {
		summary.Status = StatusPartial
	}
	summary.FinishedAt = time.Now().UTC()

	s.finish(ctx, rec, summary)
	s.publish(ctx, "sync.completed", summaryData(summary))

	logger.Log.WithFields(map[string]interface{}{
		"run_id":   runID,
		"status":   summary.Status,
		"pages":    summary.PagesFetched,
		"records":  summary.RecordsEmitted,
		"filtered": summary.FilteredRows,
		"duration": summary.FinishedAt.Sub(started).String(),
	}).Info("sync run finished")

	return &summary, nil
}

// collect loops fetch->extract until the continuation token is exhausted,
// the record cap is reached, or a page becomes unavailable. A fetch failure
// stops pagination but keeps everything accumulated so far; partial results
// are still processed and emitted.
func (s *Service) collect(ctx context.Context) (records []*trials.Record, pages int, partial bool) {
	records = make([]*trials.Record, 0, s.maxRecords)
	token := registry.TokenStart

	for len(records) < s.maxRecords {
		page, err := s.fetcher.FetchPage(ctx, token)
		if err != nil {
			if errors.Is(err, registry.ErrNoMorePages) {
				break
			}
			logger.Log.WithError(err).Warn("pagination stopped, continuing with accumulated records")
			partial = true
			break
		}

		next, pageRecords, count := registry.ExtractPage(page)
		records = append(records, pageRecords...)
		pages++
		token = next

		logger.Log.WithFields(map[string]interface{}{
			"page":        pages,
			"page_count":  count,
			"accumulated": len(records),
		}).Debug("page extracted")

		if token == registry.TokenEnd {
			break
		}
	}

	if len(records) > s.maxRecords {
		records = records[:s.maxRecords]
		logger.Log.WithField("max_records", s.maxRecords).Info("record cap reached, truncating")
	}
	return records, pages, partial
}

func (s *Service) finish(ctx context.Context, rec *RunRecord, summary models.RunSummary) {
	rec.Status = summary.Status
	rec.PagesFetched = summary.PagesFetched
	rec.RecordsFetched = summary.RecordsFetched
	rec.RecordsEmitted = summary.RecordsEmitted
	rec.FilteredRows = summary.FilteredRows
	rec.Summary = datatypes.JSONMap(summaryData(summary))
	finished := summary.FinishedAt
	rec.FinishedAt = &finished

	if s.repo != nil {
		if err := s.repo.Update(ctx, rec); err != nil {
			logger.Log.WithError(err).Warn("failed to update run record")
		}
	}
	if s.state != nil {
		if err := s.state.SaveLastRun(ctx, summary); err != nil {
			logger.Log.WithError(err).Warn("failed to cache last run summary")
		}
	}
}

func (s *Service) fail(ctx context.Context, rec *RunRecord, summary models.RunSummary, err error) error {
	summary.Status = StatusFailed
	summary.Error = err.Error()
	summary.FinishedAt = time.Now().UTC()
	rec.Error = err.Error()

	s.finish(ctx, rec, summary)
	s.publish(ctx, "sync.failed", summaryData(summary))
	return err
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish run event")
	}
}

func summaryData(summary models.RunSummary) map[string]interface{} {
	return map[string]interface{}{
		"run_id":          summary.RunID,
		"status":          summary.Status,
		"pages_fetched":   summary.PagesFetched,
		"records_fetched": summary.RecordsFetched,
		"records_emitted": summary.RecordsEmitted,
		"filtered_rows":   summary.FilteredRows,
		"error":           summary.Error,
	}
}
