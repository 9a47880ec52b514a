package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/repository"
)

type FireUsecase struct {
	repo repository.FireRepository // nil when history is disabled
}

func NewFireUsecase(repo repository.FireRepository) *FireUsecase {
	return &FireUsecase{repo: repo}
}

func (u *FireUsecase) Enabled() bool {
	return u.repo != nil
}

func (u *FireUsecase) GetFire(ctx context.Context, id string) (*domain.FireRecord, error) {
	if u.repo == nil {
		return nil, domain.ErrHistoryDisabled
	}

	f, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get fire event: %w", err)
	}
	return f, nil
}

type ListFiresInput struct {
	Since  *time.Time
	Cursor string
	Limit  int
}

type ListFiresResult struct {
	Fires      []*domain.FireRecord
	NextCursor *string
}

type fireCursor struct {
	FiredAt time.Time `json:"f"`
	ID      string    `json:"i"`
}

func decodeCursor(s string) (*time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}
	var c fireCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", fmt.Errorf("unmarshal cursor: %w", err)
	}
	if c.ID == "" || c.FiredAt.IsZero() {
		return nil, "", domain.ErrInvalidCursor
	}
	return &c.FiredAt, c.ID, nil
}

func encodeCursor(firedAt time.Time, id string) string {
	b, _ := json.Marshal(fireCursor{FiredAt: firedAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}

func (u *FireUsecase) ListFires(ctx context.Context, input ListFiresInput) (ListFiresResult, error) {
	if u.repo == nil {
		return ListFiresResult{}, domain.ErrHistoryDisabled
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	repoInput := repository.ListFiresInput{
		Since: input.Since,
		Limit: limit + 1,
	}

	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(input.Cursor)
		if err != nil {
			return ListFiresResult{}, domain.ErrInvalidCursor
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	fires, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListFiresResult{}, fmt.Errorf("list fire events: %w", err)
	}

	var nextCursor *string
	if len(fires) == limit+1 {
		last := fires[limit-1]
		s := encodeCursor(last.ActualFireTime, last.ID)
		nextCursor = &s
		fires = fires[:limit]
	}

	return ListFiresResult{Fires: fires, NextCursor: nextCursor}, nil
}
