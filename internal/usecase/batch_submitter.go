package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/platepicker/backend/internal/domain"
	"github.com/platepicker/backend/pkg/logger"
)

// BatchSubmitter sends processed items to the bulk endpoint in one call
type BatchSubmitter struct {
	client domain.SubmissionClient
	logger *zap.Logger
}

// NewBatchSubmitter creates a new batch submitter
func NewBatchSubmitter(client domain.SubmissionClient, log *zap.Logger) *BatchSubmitter {
	return &BatchSubmitter{
		client: client,
		logger: logger.OrNop(log),
	}
}

// SplitTags splits a comma-separated tag field, trimming and dropping empties
func SplitTags(tagsRaw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(tagsRaw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// BuildSubmitItem converts a processed item to its wire shape
func BuildSubmitItem(item domain.ProcessedItem) domain.SubmitItem {
	tags := item.Tags
	if tags == nil {
		tags = SplitTags(item.TagsRaw)
	}

	address := item.FormattedAddress
	if address == "" {
		address = FormatAddress(nil, item.Address)
	}

	return domain.SubmitItem{
		Name:           item.Name,
		Type:           item.EntityType,
		PlaceID:        item.PlaceID,
		Address:        address,
		NeighborhoodID: item.Neighborhood.ID,
		Tags:           tags,
	}
}

// Submit posts every item in a single request. It is never retried.
// Transport and rejection failures are returned as ErrSubmissionUnavailable or
// ErrSubmissionRejected; a reply that cannot be decoded is ErrSubmissionContract.
func (s *BatchSubmitter) Submit(ctx context.Context, items []domain.ProcessedItem) (domain.BatchSubmitResult, error) {
	if len(items) == 0 {
		return domain.BatchSubmitResult{}, nil
	}

	req := &domain.SubmitRequest{Items: make([]domain.SubmitItem, len(items))}
	for i, item := range items {
		req.Items[i] = BuildSubmitItem(item)
	}

	resp, err := s.client.SubmitBatch(ctx, req)
	if err != nil {
		s.logger.Error("batch submission failed", zap.Int("items", len(items)), zap.Error(err))
		return domain.BatchSubmitResult{}, err
	}
	if resp == nil {
		return domain.BatchSubmitResult{}, fmt.Errorf("%w: empty response", domain.ErrSubmissionContract)
	}
	if resp.Success == nil || !*resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "response lacks success indicator"
		}
		return domain.BatchSubmitResult{}, fmt.Errorf("%w: %s", domain.ErrSubmissionRejected, msg)
	}

	result := domain.BatchSubmitResult{
		AddedCount:     resp.Added,
		ErrorCount:     resp.Errors,
		PerItemResults: perItemResults(items, resp),
	}

	s.logger.Info("batch submitted",
		zap.Int("items", len(items)),
		zap.Int("added", resp.Added),
		zap.Int("errors", resp.Errors))

	return result, nil
}

// perItemResults prefers the endpoint's per-item statuses. Items it does not
// mention are treated as submitted. Without any statuses the counts decide for
// the whole batch.
func perItemResults(items []domain.ProcessedItem, resp *domain.SubmitResponse) []domain.ItemSubmitResult {
	results := make([]domain.ItemSubmitResult, len(items))
	for i, item := range items {
		results[i] = domain.ItemSubmitResult{LineNumber: item.LineNumber, Submitted: true}
	}

	if len(resp.Results) > 0 {
		for _, status := range resp.Results {
			if status.Index < 0 || status.Index >= len(items) || status.Success {
				continue
			}
			reason := status.Error
			if reason == "" {
				reason = "rejected by endpoint"
			}
			results[status.Index].Submitted = false
			results[status.Index].Reason = reason
		}
		return results
	}

	if resp.Errors > 0 {
		reason := fmt.Sprintf("endpoint reported %d added, %d errors", resp.Added, resp.Errors)
		for i := range results {
			results[i].Submitted = false
			results[i].Reason = reason
		}
	}
	return results
}
