package service

import (
	"errors"
	"fmt"

	pkgerrors "solveit/pkg/errors"
)

var (
	ErrComplaintNotFound    = fmt.Errorf("complaint %w", pkgerrors.ErrNotFound)
	ErrStaffNotFound        = fmt.Errorf("staff member %w", pkgerrors.ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", pkgerrors.ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", pkgerrors.ErrNotFound)

	ErrInvalidTransition = fmt.Errorf("status transition not allowed: %w", pkgerrors.ErrValidation)
	ErrNotRatable        = fmt.Errorf("only resolved complaints can be rated: %w", pkgerrors.ErrValidation)
	ErrMaxEscalation     = fmt.Errorf("complaint is already at the highest escalation level: %w", pkgerrors.ErrValidation)

	ErrNotAssignee   = fmt.Errorf("only the assigned staff member may act on this complaint: %w", pkgerrors.ErrForbidden)
	ErrAccessDenied  = fmt.Errorf("complaint belongs to someone else: %w", pkgerrors.ErrForbidden)
	ErrAdminRequired = fmt.Errorf("administrator role required: %w", pkgerrors.ErrForbidden)

	ErrAlreadyRated = fmt.Errorf("complaint already rated: %w", pkgerrors.ErrConflict)
	ErrEmailExists  = fmt.Errorf("email already registered: %w", pkgerrors.ErrConflict)

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid or revoked token")
)
