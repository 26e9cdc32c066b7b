package booking

import (
	"errors"
	"fmt"

	"github.com/desk-reserve/backend/internal/storage/models"
)

// Error categories returned by the engine. Match them with errors.Is.
var (
	ErrValidation = errors.New("invalid booking request")
	ErrConflict   = errors.New("booking conflict")
	ErrNotFound   = errors.New("booking not found")
	ErrForbidden  = errors.New("not authorized to modify booking")
)

// ConflictError reports the occurrence that is already booked.
type ConflictError struct {
	Date     string
	BookType models.BookType
	SubType  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already booked on %s", e.BookType, e.SubType, e.Date)
}

// Is makes ConflictError match ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
