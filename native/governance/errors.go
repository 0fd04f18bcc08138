package governance

import coreerrors "eusko/core/errors"

var (
	ErrUnauthorized        = coreerrors.New(coreerrors.KindAuthorization, "governance: caller is not the owner")
	ErrRateTooHigh         = coreerrors.New(coreerrors.KindInvariant, "governance: rate cannot exceed 100%")
	ErrInvalidRecipient    = coreerrors.New(coreerrors.KindInvariant, "governance: invalid recipient address")
	ErrEmptyDescription    = coreerrors.New(coreerrors.KindInvariant, "governance: description required")
	ErrProposalNotFound    = coreerrors.New(coreerrors.KindNotFound, "governance: proposal not found")
	ErrBadgeNotFound       = coreerrors.New(coreerrors.KindNotFound, "governance: badge not found")
	ErrAlreadyVoted        = coreerrors.New(coreerrors.KindStateConflict, "governance: already voted")
	ErrProposalExecuted    = coreerrors.New(coreerrors.KindStateConflict, "governance: proposal already executed")
	ErrProposalNotApproved = coreerrors.New(coreerrors.KindInsufficientResource, "governance: proposal not approved")

	errStateNotConfigured = coreerrors.New(coreerrors.KindInternal, "governance: state not configured")
)
