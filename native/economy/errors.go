package economy

import "errors"

var (
	ErrInsufficientBudget         = errors.New("economy: not enough action points")
	ErrRoundNotYetElapsed         = errors.New("economy: too early to advance round")
	ErrInsufficientClaimable      = errors.New("economy: not enough claimable amount")
	ErrInsufficientDelegatedFunds = errors.New("economy: insufficient delegated funds")
	ErrIdentityMismatch           = errors.New("economy: operator binding mismatch")
	ErrArithmeticOverflow         = errors.New("economy: arithmetic overflow")
	ErrInvalidInput               = errors.New("economy: invalid input")

	ErrNotOwned             = errors.New("economy: asset not controlled by actor")
	ErrNotVerified          = errors.New("economy: asset not in forum collection")
	ErrAccessDenied         = errors.New("economy: access denied")
	ErrExceedMaxRepeatCount = errors.New("economy: too many distinct interactions this round")

	ErrForumExists          = errors.New("economy: forum already exists")
	ErrForumNotFound        = errors.New("economy: forum not found")
	ErrUserExists           = errors.New("economy: user already exists")
	ErrUserNotFound         = errors.New("economy: user not found")
	ErrPostNotFound         = errors.New("economy: post not found")
	ErrPostNotInteractable  = errors.New("economy: post not interactable")
	ErrCommentNotFound      = errors.New("economy: comment not found")
	ErrPoolExists           = errors.New("economy: operator pool already exists")
	ErrPoolNotFound         = errors.New("economy: operator pool not found")
	ErrOperatorExists       = errors.New("economy: operator already exists")
	ErrOperatorNotFound     = errors.New("economy: operator not found")
	ErrOperatorNotBound     = errors.New("economy: no operator bound")
	ErrSessionExists        = errors.New("economy: operator session already exists")
	ErrSessionNotFound      = errors.New("economy: operator session not found")
	ErrSessionAlreadyFunded = errors.New("economy: operator session already funded")
	ErrVaultUnderfunded     = errors.New("economy: session vault underfunded")
	ErrUnsettledFees        = errors.New("economy: operator fees not collected")

	errNilState = errors.New("economy: state not configured")
)
