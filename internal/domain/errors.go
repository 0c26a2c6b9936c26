package domain

import "errors"

// BusinessError ошибка бизнес-логики, которая уже залогирована в UseCase
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

var (
	ErrNotFound          = errors.New("not found")
	ErrOrderTaken        = errors.New("order already taken")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("action not allowed for this user")
	ErrReviewExists      = errors.New("review for this order already exists")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrRoleAlreadySet    = errors.New("user role is already set")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidState      = errors.New("invalid conversation state")
	ErrDraftIncomplete   = errors.New("order draft is incomplete")
	ErrConcurrentUpdate  = errors.New("record changed concurrently")
)
