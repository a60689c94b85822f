package workflow

import "errors"

// Error taxonomy for transition and editing requests. Controllers map these
// onto HTTP statuses; none of them is retried automatically.
var (
	// ErrNotFound means the post (or actor profile) does not exist.
	ErrNotFound = errors.New("post not found")
	// ErrInvalidEdge means the requested (from, to) pair is not a legal
	// transition, including unrecognized target statuses.
	ErrInvalidEdge = errors.New("invalid status transition")
	// ErrUnauthorized means the acting user lacks the role required by the
	// requested edge.
	ErrUnauthorized = errors.New("not allowed to perform this transition")
	// ErrMissingComment means changes_requested was requested without a
	// comment.
	ErrMissingComment = errors.New("a comment is required when requesting changes")
	// ErrStaleTransition means a concurrent transition won the race; the
	// caller should refetch and retry.
	ErrStaleTransition = errors.New("post status changed concurrently")
	// ErrForbidden means the caller may not edit this post at all.
	ErrForbidden = errors.New("not allowed to edit this post")
	// ErrInvalidState means the post is not in an editable status for this
	// caller.
	ErrInvalidState = errors.New("post can only be edited in draft or changes_requested status")
)
