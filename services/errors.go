package services

import "errors"

var (
	ErrInvalidRate     = errors.New("commission rate must be within [0, 1)")
	ErrInvalidAmount   = errors.New("amount must be a non-negative number of minor units")
	ErrListingNotFound = errors.New("listing not found")
	ErrMentorNotFound  = errors.New("mentor not found")
	ErrNotEligible     = errors.New("seller account cannot accept checkout")
	ErrForbidden       = errors.New("actor is not allowed to perform this action")
	ErrCapacityReached = errors.New("project has no remaining seats")
	ErrMissingAccount  = errors.New("mentor has no connected payout account")
)
