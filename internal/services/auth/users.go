// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/go-accounts/internal/models"
	"codeberg.org/oliverandrich/go-accounts/internal/repository"
)

// UserPage is one page of the user listing.
type UserPage struct {
	Content    []models.PublicUser `json:"content"`
	Page       int                 `json:"page"`
	Size       int                 `json:"size"`
	TotalPages int                 `json:"totalPages"`
}

// GetUser returns an activated user. Inactive accounts are not found.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.PublicUser, error) {
	user, err := s.repo.GetActiveUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	public := user.Public()
	return &public, nil
}

// ListUsers returns a page of activated users, leaving out the viewer.
// viewerID is 0 for anonymous callers.
func (s *Service) ListUsers(ctx context.Context, page, size int, viewerID int64) (*UserPage, error) {
	users, err := s.repo.ListActiveUsers(ctx, size, page*size, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	count, err := s.repo.CountActiveUsers(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	return &UserPage{
		Content:    users,
		Page:       page,
		Size:       size,
		TotalPages: int((count + int64(size) - 1) / int64(size)),
	}, nil
}

// UpdateUser changes the username of the caller's own account.
func (s *Service) UpdateUser(ctx context.Context, viewerID, id int64, username string) (*models.PublicUser, error) {
	if viewerID == 0 || viewerID != id {
		slog.Warn("user_update_denied", "viewer_id", viewerID, "user_id", id)
		return nil, ErrUnauthorizedUpdate
	}

	if err := s.repo.UpdateUsername(ctx, id, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorizedUpdate
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	slog.Info("user_updated", "user_id", id)
	public := user.Public()
	return &public, nil
}

// DeleteUser deletes the caller's own account and all of its sessions.
func (s *Service) DeleteUser(ctx context.Context, viewerID, id int64) error {
	if viewerID == 0 || viewerID != id {
		slog.Warn("user_delete_denied", "viewer_id", viewerID, "user_id", id)
		return ErrUnauthorizedDelete
	}

	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user_deleted", "user_id", id)
	return nil
}
