package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/app"
	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/domain"
)

// MaxRequestBodySize bounds JSON request bodies.
const MaxRequestBodySize = 1 << 20

// CampaignService is the administrative surface of the campaign application.
type CampaignService interface {
	CreateCampaign(ctx context.Context, p app.CreateCampaignParams) (*domain.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, to domain.CampaignStatus) (*domain.Campaign, error)
	ImportPhonebook(ctx context.Context, campaignID, phonebookID uuid.UUID) (*app.ImportResult, error)
	Progress(ctx context.Context, id uuid.UUID) (domain.Progress, error)
}

type CampaignHandler struct {
	service  CampaignService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewCampaignHandler(service CampaignService, logger *slog.Logger, validate *validator.Validate) *CampaignHandler {
	return &CampaignHandler{
		service:  service,
		logger:   logger.With("component", "campaign_handler"),
		validate: validate,
	}
}

// RegisterRoutes registers the campaign administration routes on r.
func (h *CampaignHandler) RegisterRoutes(r chi.Router) {
	r.Post("/campaigns", h.CreateCampaign)
	r.Get("/campaigns/{campaignID}", h.GetCampaign)
	r.Put("/campaigns/{campaignID}/status", h.ChangeStatus)
	r.Post("/campaigns/{campaignID}/phonebooks/{phonebookID}/import", h.ImportPhonebook)
	r.Get("/campaigns/{campaignID}/progress", h.GetProgress)
}

func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var reqDTO CreateCampaignRequestDTO
	if !decodeAndValidate(w, r, h.logger, h.validate, &reqDTO, "CreateCampaign") {
		return
	}

	params, err := toCreateParams(reqDTO)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid CreateCampaign request", "error", err)
		http.Error(w, fmt.Sprintf("Validation error: %s", err.Error()), http.StatusBadRequest)
		return
	}

	c, err := h.service.CreateCampaign(ctx, params)
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "CreateCampaign", "")
		return
	}

	h.logger.InfoContext(ctx, "Campaign created", "campaign_id", c.ID, "code", c.Code, "request_id", chi_middleware.GetReqID(ctx))
	writeJSON(ctx, w, h.logger, http.StatusCreated, toCampaignDTO(c))
}

func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := uuidParam(w, r, h.logger, "campaignID")
	if !ok {
		return
	}
	c, err := h.service.GetCampaign(ctx, id)
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "GetCampaign", id.String())
		return
	}
	writeJSON(ctx, w, h.logger, http.StatusOK, toCampaignDTO(c))
}

func (h *CampaignHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := uuidParam(w, r, h.logger, "campaignID")
	if !ok {
		return
	}
	var reqDTO ChangeStatusRequestDTO
	if !decodeAndValidate(w, r, h.logger, h.validate, &reqDTO, "ChangeStatus") {
		return
	}

	c, err := h.service.ChangeStatus(ctx, id, domain.CampaignStatus(reqDTO.Status))
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "ChangeStatus", id.String())
		return
	}
	h.logger.InfoContext(ctx, "Campaign status changed", "campaign_id", id, "status", c.Status, "request_id", chi_middleware.GetReqID(ctx))
	writeJSON(ctx, w, h.logger, http.StatusOK, toCampaignDTO(c))
}

func (h *CampaignHandler) ImportPhonebook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, ok := uuidParam(w, r, h.logger, "campaignID")
	if !ok {
		return
	}
	phonebookID, ok := uuidParam(w, r, h.logger, "phonebookID")
	if !ok {
		return
	}

	result, err := h.service.ImportPhonebook(ctx, campaignID, phonebookID)
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "ImportPhonebook", campaignID.String())
		return
	}
	writeJSON(ctx, w, h.logger, http.StatusOK, result)
}

func (h *CampaignHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := uuidParam(w, r, h.logger, "campaignID")
	if !ok {
		return
	}
	p, err := h.service.Progress(ctx, id)
	if err != nil {
		writeAppError(ctx, w, h.logger, err, "GetProgress", id.String())
		return
	}
	writeJSON(ctx, w, h.logger, http.StatusOK, ProgressResponseDTO{
		CampaignID: id.String(),
		Completed:  p.Completed,
		Total:      p.Total,
		Percent:    p.Percent(),
	})
}

func toCreateParams(dto CreateCampaignRequestDTO) (app.CreateCampaignParams, error) {
	p := app.CreateCampaignParams{
		AccountID:      uuid.MustParse(dto.AccountID),
		GatewayID:      uuid.MustParse(dto.GatewayID),
		Name:           dto.Name,
		Description:    dto.Description,
		TextMessage:    dto.TextMessage,
		ExtraData:      dto.ExtraData,
		StartingDate:   dto.StartingDate,
		ExpirationDate: dto.ExpirationDate,
		Frequency:      dto.Frequency,
		MaxRetry:       dto.MaxRetry,
		IntervalRetry:  dto.IntervalRetry,
	}
	if dto.DailyStartTime != nil {
		t, err := domain.ParseTimeOfDay(*dto.DailyStartTime)
		if err != nil {
			return p, err
		}
		p.DailyStartTime = &t
	}
	if dto.DailyStopTime != nil {
		t, err := domain.ParseTimeOfDay(*dto.DailyStopTime)
		if err != nil {
			return p, err
		}
		p.DailyStopTime = &t
	}
	if dto.ActiveDays != nil {
		m := domain.WeekdayMask(*dto.ActiveDays)
		p.ActiveDays = &m
	}
	for _, s := range dto.PhonebookIDs {
		p.PhonebookIDs = append(p.PhonebookIDs, uuid.MustParse(s))
	}
	return p, nil
}

// decodeAndValidate reads a bounded JSON body into dst and validates it,
// writing a 400 and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, validate *validator.Validate, dst interface{}, operation string) bool {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.WarnContext(ctx, "Failed to decode request body", "operation", operation, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := validate.StructCtx(ctx, dst); err != nil {
		logger.WarnContext(ctx, "Validation failed", "operation", operation, "error", err)
		http.Error(w, fmt.Sprintf("Validation error: %s", err.Error()), http.StatusBadRequest)
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.WarnContext(r.Context(), "Invalid path parameter", "param", name, "value", raw)
		http.Error(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
