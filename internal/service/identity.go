package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// LocalIdentityDirectory - resolves usernames against the user store of this process.
type LocalIdentityDirectory struct {
	userRepo userRepo
}

func NewLocalIdentityDirectory(userRepo userRepo) *LocalIdentityDirectory {
	return &LocalIdentityDirectory{userRepo: userRepo}
}

func (that *LocalIdentityDirectory) Lookup(ctx context.Context, username string) (*entity.User, error) {
	user, err := that.userRepo.Find(ctx, username)
	if errors.Is(err, apperror.ErrUserNotFound) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w: identity lookup: %w", apperror.ErrCollaboratorUnavailable, err)
	}

	return user, nil
}

// RemoteIdentityDirectory - resolves usernames through the HTTP user service.
type RemoteIdentityDirectory struct {
	baseURL string
	client  *http.Client
}

func NewRemoteIdentityDirectory(baseURL string, client *http.Client) *RemoteIdentityDirectory {
	return &RemoteIdentityDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (that *RemoteIdentityDirectory) Lookup(ctx context.Context, username string) (*entity.User, error) {
	endpoint := that.baseURL + "/users/" + url.PathEscape(username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build identity request: %w", err)
	}

	resp, err := that.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: identity lookup: %w", apperror.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: identity service responded %d", apperror.ErrCollaboratorUnavailable, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.ErrUserNotFound
	}

	var user entity.User
	if err = json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: failed to decode user: %w", apperror.ErrCollaboratorUnavailable, err)
	}

	return &user, nil
}
