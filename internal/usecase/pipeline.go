package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/platepicker/backend/internal/domain"
	"github.com/platepicker/backend/pkg/logger"
)

const (
	DefaultWorkers       = 4
	DefaultSubmitTimeout = 60 * time.Second
)

// PipelineConfig holds configuration for a bulk-add run
type PipelineConfig struct {
	Workers int
	// RunTimeout bounds the per-item processing phase. 0 means no deadline.
	RunTimeout    time.Duration
	SubmitTimeout time.Duration
	// DuplicatePolicy is used when a run does not choose its own
	DuplicatePolicy DuplicatePolicy
}

// Pipeline runs a raw bulk-add text through parsing, duplicate detection,
// place resolution, address normalization, neighborhood lookup and a single
// batch submission
type Pipeline struct {
	detector      *DuplicateDetector
	places        *PlaceResolver
	normalizer    *AddressNormalizer
	neighborhoods *NeighborhoodResolver
	submitter     *BatchSubmitter
	config        PipelineConfig
	logger        *zap.Logger
}

// NewPipeline creates a new pipeline
func NewPipeline(
	detector *DuplicateDetector,
	places *PlaceResolver,
	normalizer *AddressNormalizer,
	neighborhoods *NeighborhoodResolver,
	submitter *BatchSubmitter,
	config PipelineConfig,
	log *zap.Logger,
) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.SubmitTimeout <= 0 {
		config.SubmitTimeout = DefaultSubmitTimeout
	}
	if config.DuplicatePolicy == nil {
		config.DuplicatePolicy = AnnotateDuplicates
	}

	return &Pipeline{
		detector:      detector,
		places:        places,
		normalizer:    normalizer,
		neighborhoods: neighborhoods,
		submitter:     submitter,
		config:        config,
		logger:        logger.OrNop(log),
	}
}

type runOptions struct {
	duplicatePolicy DuplicatePolicy
}

// RunOption customises a single run
type RunOption func(*runOptions)

// WithDuplicatePolicy overrides the configured duplicate policy for one run
func WithDuplicatePolicy(policy DuplicatePolicy) RunOption {
	return func(o *runOptions) {
		if policy != nil {
			o.duplicatePolicy = policy
		}
	}
}

// workItem pairs a candidate with its report slot; each slot is written by exactly one worker
type workItem struct {
	candidate domain.CandidateRecord
	report    *domain.ItemReport
	processed *domain.ProcessedItem
}

// Run processes rawText end to end. Per-item failures are recorded in the
// report and never abort the run. The only error returned is a submission
// reply that cannot be interpreted, in which case no report is produced.
func (p *Pipeline) Run(ctx context.Context, rawText string, reference []domain.ReferenceItem, opts ...RunOption) (*domain.BatchReport, error) {
	options := runOptions{duplicatePolicy: p.config.DuplicatePolicy}
	for _, opt := range opts {
		opt(&options)
	}

	report := &domain.BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := p.logger.With(zap.String("run_id", report.RunID))

	candidates, parseErrors := ParseText(rawText)
	report.TotalLines = len(candidates) + len(parseErrors)
	report.ParsedCount = len(candidates)

	reports := make([]*domain.ItemReport, 0, report.TotalLines)
	for _, pe := range parseErrors {
		reports = append(reports, &domain.ItemReport{
			LineNumber: pe.LineNumber,
			RawText:    pe.RawText,
			Outcome:    domain.OutcomeParseFailed,
			Stage:      domain.StageParse,
			Reason:     pe.Reason,
		})
	}

	var work []*workItem
	for _, c := range p.detector.Detect(candidates, reference) {
		item := &domain.ItemReport{
			LineNumber:  c.LineNumber,
			RawText:     c.RawText,
			Name:        c.Name,
			Stage:       domain.StageDuplicate,
			DuplicateOf: c.DuplicateOf,
		}
		reports = append(reports, item)

		if c.IsDuplicate() {
			report.DuplicateCount++
		}
		if options.duplicatePolicy.Skip(c) {
			item.Outcome = domain.OutcomeDuplicateSkipped
			item.Reason = duplicateReason(c.DuplicateOf)
			report.SkippedDuplicates++
			continue
		}
		work = append(work, &workItem{candidate: c.CandidateRecord, report: item})
	}

	p.process(ctx, work)

	var processed []domain.ProcessedItem
	for _, w := range work {
		if w.processed != nil {
			processed = append(processed, *w.processed)
		}
	}

	if len(processed) > 0 {
		if err := p.submit(ctx, report, work, processed); err != nil {
			log.Error("run aborted by submission reply", zap.Error(err))
			return nil, err
		}
	}

	report.Items = make([]domain.ItemReport, len(reports))
	for i, r := range reports {
		report.Items[i] = *r
	}
	sort.SliceStable(report.Items, func(i, j int) bool {
		return report.Items[i].LineNumber < report.Items[j].LineNumber
	})
	tally(report)
	report.FinishedAt = time.Now()

	log.Info("bulk-add run finished",
		zap.Int("total", report.TotalLines),
		zap.Int("parsed", report.ParsedCount),
		zap.Int("duplicates", report.DuplicateCount),
		zap.Int("processed", report.ProcessedCount),
		zap.Int("submitted", report.SubmittedCount),
		zap.Bool("submission_attempted", report.SubmissionAttempted),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))

	return report, nil
}

// process runs every work item through the bounded worker pool. Items not
// started before the run deadline are marked as errors.
func (p *Pipeline) process(ctx context.Context, work []*workItem) {
	runCtx := ctx
	if p.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.config.RunTimeout)
		defer cancel()
	}

	var g errgroup.Group
	g.SetLimit(p.config.Workers)

	for _, w := range work {
		if err := runCtx.Err(); err != nil {
			markError(w.report, err)
			continue
		}
		g.Go(func() error {
			w.processed = p.processItem(runCtx, w.candidate, w.report)
			return nil
		})
	}

	_ = g.Wait()
}

// processItem walks one candidate through resolution. It returns nil when the
// item stops at a failing stage; the report says which.
func (p *Pipeline) processItem(ctx context.Context, c domain.CandidateRecord, report *domain.ItemReport) *domain.ProcessedItem {
	if err := ctx.Err(); err != nil {
		markError(report, err)
		return nil
	}

	report.Stage = domain.StageResolve
	resolved := p.places.Resolve(ctx, c)
	report.ResolveStatus = resolved.Status
	if resolved.Status == domain.ResolveError {
		fail(ctx, report, domain.OutcomeResolveFailed, resolved.ErrorDetail)
		return nil
	}
	report.PlaceID = resolved.PlaceID
	for _, alt := range resolved.Candidates[1:] {
		report.AlternativePlaceIDs = append(report.AlternativePlaceIDs, alt.PlaceID)
	}

	details, err := p.places.Details(ctx, resolved.PlaceID)
	if err != nil {
		fail(ctx, report, domain.OutcomeResolveFailed, "place details: "+err.Error())
		return nil
	}

	report.Stage = domain.StageAddress
	address, err := p.normalizer.Normalize(details)
	if err != nil {
		fail(ctx, report, domain.OutcomeAddressFailed, err.Error())
		return nil
	}
	report.PostalCode = address.PostalCode

	report.Stage = domain.StageNeighborhood
	neighborhood := p.neighborhoods.ResolveByPostalCode(ctx, address.PostalCode)
	if err := ctx.Err(); err != nil {
		markError(report, err)
		return nil
	}
	if neighborhood.ID == "" {
		fail(ctx, report, domain.OutcomeNeighborhoodFailed, "neighborhood has no id")
		return nil
	}
	report.NeighborhoodID = neighborhood.ID
	report.NeighborhoodFallback = IsFallback(neighborhood)

	report.Stage = domain.StageBuild
	report.Outcome = domain.OutcomeProcessed

	return &domain.ProcessedItem{
		CandidateRecord:  c,
		PlaceID:          resolved.PlaceID,
		FormattedAddress: FormatAddress(details, address),
		Address:          address,
		Neighborhood:     neighborhood,
		Tags:             SplitTags(c.TagsRaw),
	}
}

// submit sends the processed items once and folds the verdicts into the
// reports. Only a contract violation is returned.
func (p *Pipeline) submit(ctx context.Context, report *domain.BatchReport, work []*workItem, processed []domain.ProcessedItem) error {
	submitCtx, cancel := context.WithTimeout(ctx, p.config.SubmitTimeout)
	defer cancel()

	report.SubmissionAttempted = true
	result, err := p.submitter.Submit(submitCtx, processed)

	byLine := make(map[int]*domain.ItemReport, len(processed))
	for _, w := range work {
		if w.processed != nil {
			byLine[w.candidate.LineNumber] = w.report
		}
	}

	if err != nil {
		if errors.Is(err, domain.ErrSubmissionContract) {
			return fmt.Errorf("bulk submission: %w", err)
		}
		report.SubmissionError = err.Error()
		for _, r := range byLine {
			r.Stage = domain.StageSubmit
			r.Outcome = domain.OutcomeSubmitFailed
			r.Reason = err.Error()
		}
		return nil
	}

	report.ServerAdded = result.AddedCount
	report.ServerErrors = result.ErrorCount
	for _, res := range result.PerItemResults {
		r, ok := byLine[res.LineNumber]
		if !ok {
			continue
		}
		r.Stage = domain.StageSubmit
		if res.Submitted {
			r.Outcome = domain.OutcomeSubmitted
		} else {
			r.Outcome = domain.OutcomeSubmitFailed
			r.Reason = res.Reason
		}
	}
	return nil
}

// fail records a stage failure, or a run-deadline error when ctx is done
func fail(ctx context.Context, report *domain.ItemReport, outcome domain.ItemOutcome, reason string) {
	if err := ctx.Err(); err != nil {
		markError(report, err)
		return
	}
	report.Outcome = outcome
	report.Reason = reason
}

func markError(report *domain.ItemReport, err error) {
	report.Outcome = domain.OutcomeError
	report.Reason = err.Error()
}

func duplicateReason(ref *domain.DuplicateRef) string {
	if ref == nil {
		return ""
	}
	if ref.ReferenceID != "" {
		return fmt.Sprintf("duplicate of existing %q (%s)", ref.Name, ref.ReferenceID)
	}
	return fmt.Sprintf("duplicate of line %d", ref.LineNumber)
}

func tally(report *domain.BatchReport) {
	for _, item := range report.Items {
		switch item.Outcome {
		case domain.OutcomeParseFailed:
			report.Failures.Parse++
		case domain.OutcomeResolveFailed:
			report.Failures.Resolve++
		case domain.OutcomeAddressFailed:
			report.Failures.Address++
		case domain.OutcomeNeighborhoodFailed:
			report.Failures.Neighborhood++
		case domain.OutcomeSubmitFailed:
			report.Failures.Submit++
			report.ProcessedCount++
		case domain.OutcomeError:
			report.Failures.Error++
		case domain.OutcomeProcessed:
			report.ProcessedCount++
		case domain.OutcomeSubmitted:
			report.ProcessedCount++
			report.SubmittedCount++
		}
	}
}
