package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

// LocalRuleValidator - runs the tic-tac-toe rules in process.
type LocalRuleValidator struct{}

func NewLocalRuleValidator() *LocalRuleValidator {
	return &LocalRuleValidator{}
}

func (that *LocalRuleValidator) Validate(ctx context.Context, request entity.MoveRequest) (*entity.MoveOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrCollaboratorUnavailable, err)
	}

	return tictactoe.ApplyMove(request)
}

// RemoteRuleValidator - calls the HTTP game service.
type RemoteRuleValidator struct {
	baseURL string
	client  *http.Client
}

func NewRemoteRuleValidator(baseURL string, client *http.Client) *RemoteRuleValidator {
	return &RemoteRuleValidator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type rejection struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (that *RemoteRuleValidator) Validate(ctx context.Context, request entity.MoveRequest) (*entity.MoveOutcome, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal move request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.baseURL+"/move", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not build move request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: rule validator: %w", apperror.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var outcome entity.MoveOutcome
		if err = json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrCollaboratorUnavailable, err)
		}

		return &outcome, nil
	}

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		var payload rejection
		if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: failed to decode rejection: %w", apperror.ErrCollaboratorUnavailable, err)
		}

		if known := apperror.FromReason(payload.Reason); known != nil && !errors.Is(known, apperror.ErrCollaboratorUnavailable) {
			return nil, known
		}

		return nil, fmt.Errorf("%w: unknown rejection %q: %s", apperror.ErrCollaboratorUnavailable, payload.Reason, payload.Error)
	}

	return nil, fmt.Errorf("%w: rule validator responded %d", apperror.ErrCollaboratorUnavailable, resp.StatusCode)
}
