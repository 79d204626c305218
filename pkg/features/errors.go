package features

import (
	"errors"
	"fmt"

	"ghostbudget/models"
)

var (
	// ErrInvalidInput is returned when an amount would make ln(1+amount) non-finite.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownExpenseType is returned for an expense type outside the enumeration.
	ErrUnknownExpenseType = fmt.Errorf("features: %w", models.ErrUnknownExpenseType)
)
