package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
)

const (
	defaultPeekLimit = 50
	maxPeekLimit     = 1000
)

// SubscriberQueue is the dispatch-worker surface of the subscriber queue.
type SubscriberQueue interface {
	ClaimPending(ctx context.Context, campaignID uuid.UUID, limit int) ([]*domain.Subscriber, error)
	PeekPending(ctx context.Context, campaignID uuid.UUID, limit int) ([]*domain.Subscriber, error)
	ReportOutcome(ctx context.Context, subscriberID uuid.UUID, success bool, messageID uuid.NullUUID) (*domain.Subscriber, error)
	RequeueStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type QueueHandler struct {
	queue    SubscriberQueue
	logger   *slog.Logger
	validate *validator.Validate
}

func NewQueueHandler(queue SubscriberQueue, logger *slog.Logger, validate *validator.Validate) *QueueHandler {
	return &QueueHandler{
		queue:    queue,
		logger:   logger.With("component", "queue_handler"),
		validate: validate,
	}
}

// ClaimPending hands up to limit eligible subscribers to the calling worker.
func (h *QueueHandler) ClaimPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, ok := uuidParam(w, r, h.logger, "campaignID")
	if !ok {
		return
	}
	var reqDTO ClaimRequestDTO
	if !decodeAndValidate(w, r, h.logger, h.validate, &reqDTO, "ClaimPending") {
		return
	}

	subs, err := h.queue.ClaimPending(ctx, campaignID, reqDTO.Limit)
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "ClaimPending", campaignID.String())
		return
	}
	writeJSON(ctx, w, h.logger, http.StatusOK, toSubscriberList(subs))
}

func (h *QueueHandler) PeekPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, ok := uuidParam(w, r, h.logger, "campaignID")
	if !ok {
		return
	}
	limit := defaultPeekLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPeekLimit {
			h.logger.WarnContext(ctx, "Invalid limit for PeekPending", "limit", raw)
			http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	subs, err := h.queue.PeekPending(ctx, campaignID, limit)
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "PeekPending", campaignID.String())
		return
	}
	writeJSON(ctx, w, h.logger, http.StatusOK, toSubscriberList(subs))
}

func (h *QueueHandler) ReportOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, ok := uuidParam(w, r, h.logger, "subscriberID")
	if !ok {
		return
	}
	var reqDTO ReportOutcomeRequestDTO
	if !decodeAndValidate(w, r, h.logger, h.validate, &reqDTO, "ReportOutcome") {
		return
	}
	var messageID uuid.NullUUID
	if reqDTO.MessageID != "" {
		messageID = uuid.NullUUID{UUID: uuid.MustParse(reqDTO.MessageID), Valid: true}
	}

	sub, err := h.queue.ReportOutcome(ctx, subscriberID, *reqDTO.Success, messageID)
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "ReportOutcome", subscriberID.String())
		return
	}
	writeJSON(ctx, w, h.logger, http.StatusOK, toSubscriberDTO(sub))
}

func (h *QueueHandler) RequeueStale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var reqDTO RequeueStaleRequestDTO
	if !decodeAndValidate(w, r, h.logger, h.validate, &reqDTO, "RequeueStale") {
		return
	}

	n, err := h.queue.RequeueStale(ctx, time.Duration(reqDTO.OlderThanSeconds)*time.Second)
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "RequeueStale", "")
		return
	}
	writeJSON(ctx, w, h.logger, http.StatusOK, RequeueStaleResponseDTO{Requeued: n})
}
