package errors

import "errors"

// ErrRateLimited, ErrGroupNotFound, ErrTokenExchange, and ErrInvalidRequest
// abort a request and map to HTTP statuses via errors.Is. ErrInviteFailed and
// ErrPolicyFailed name the failure categories surfaced inside failed/partial
// outcome warnings; they are classifications, never returned errors.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrRateLimited    = errors.New("grant request rate limit exceeded")
	ErrGroupNotFound  = errors.New("access group not found")
	ErrTokenExchange  = errors.New("token exchange failed")
	ErrInviteFailed   = errors.New("member invite failed")
	ErrPolicyFailed   = errors.New("grant policy creation failed")
)
