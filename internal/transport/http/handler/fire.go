package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fireUsecaser interface {
	GetFire(ctx context.Context, id string) (*domain.FireRecord, error)
	ListFires(ctx context.Context, input usecase.ListFiresInput) (usecase.ListFiresResult, error)
}

type FireHandler struct {
	uc     fireUsecaser
	logger *slog.Logger
}

func NewFireHandler(uc fireUsecaser, logger *slog.Logger) *FireHandler {
	return &FireHandler{uc: uc, logger: logger.With("component", "fire_handler")}
}

type fireEventResponse struct {
	ID                    string     `json:"id"`
	CurrentJitteredTarget time.Time  `json:"current_jittered_target"`
	CurrentStandardTarget time.Time  `json:"current_standard_target"`
	NextJitteredTarget    time.Time  `json:"next_jittered_target"`
	ActualFireTime        time.Time  `json:"actual_fire_time"`
	NextStandardTarget    time.Time  `json:"next_standard_target"`
	SkippedSlots          int        `json:"skipped_slots"`
	LatenessMS            int64      `json:"lateness_ms"`
	RecordedAt            *time.Time `json:"recorded_at,omitempty"`
}

func toFireEventResponse(ev domain.FireEvent) fireEventResponse {
	return fireEventResponse{
		ID:                    ev.ID,
		CurrentJitteredTarget: ev.CurrentJitteredTarget,
		CurrentStandardTarget: ev.CurrentStandardTarget,
		NextJitteredTarget:    ev.NextJitteredTarget,
		ActualFireTime:        ev.ActualFireTime,
		NextStandardTarget:    ev.NextStandardTarget,
		SkippedSlots:          ev.SkippedSlots,
		LatenessMS:            ev.Lateness().Milliseconds(),
	}
}

func toFireRecordResponse(r *domain.FireRecord) fireEventResponse {
	resp := toFireEventResponse(r.FireEvent)
	recordedAt := r.RecordedAt
	resp.RecordedAt = &recordedAt
	return resp
}

func (h *FireHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	input := usecase.ListFiresInput{
		Cursor: ctx.Query("cursor"),
		Limit:  limit,
	}
	if s := ctx.Query("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidSince})
			return
		}
		input.Since = &since
	}

	result, err := h.uc.ListFires(ctx.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCursor):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCursor})
		case errors.Is(err, domain.ErrHistoryDisabled):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errHistoryDisabled})
		default:
			h.logger.ErrorContext(ctx.Request.Context(), "list fires", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	items := make([]fireEventResponse, len(result.Fires))
	for i, f := range result.Fires {
		items[i] = toFireRecordResponse(f)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"fires":       items,
		"next_cursor": result.NextCursor,
	})
}

func (h *FireHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": errFireNotFound})
		return
	}

	f, err := h.uc.GetFire(ctx.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFireNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errFireNotFound})
		case errors.Is(err, domain.ErrHistoryDisabled):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errHistoryDisabled})
		default:
			h.logger.ErrorContext(ctx.Request.Context(), "get fire", "fire_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusOK, toFireRecordResponse(f))
}
