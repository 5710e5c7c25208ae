package catalog

import "errors"

var (
	// ErrNotFound indicates the requested asset does not exist.
	ErrNotFound = errors.New("asset not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate asset")

	// ErrConstraint indicates a check or foreign key constraint violation.
	ErrConstraint = errors.New("constraint violation")

	// ErrForbidden indicates the requester does not own the asset.
	ErrForbidden = errors.New("not asset owner")

	// ErrInvalidAsset indicates required fields are missing or malformed.
	ErrInvalidAsset = errors.New("invalid asset")
)
