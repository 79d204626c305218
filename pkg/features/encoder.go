// Package features turns a raw expense observation into the numeric vector
// the spending classifier was trained on.
package features

import (
	"fmt"
	"math"

	"ghostbudget/models"
)

const (
	// dayPeriod approximates a month as 30 days. The trained model depends on
	// this exact value, so it is not the true month length.
	dayPeriod = 30.0
	// highAmountThreshold is the fixed median used for the high_amount flag.
	highAmountThreshold = 100.0
)

// Size is the length of a feature vector.
const Size = 5

// Names lists the features in vector order.
var Names = [Size]string{"amount_log", "day_sin", "day_cos", "high_amount", "amount_day_interaction"}

// Vector is an encoded expense in the order given by Names.
type Vector [Size]float64

// Encoding is the result of Encode. Category is computed from the expense
// type but is not part of Features; the model was trained without it.
type Encoding struct {
	Features Vector
	Category int
}

// Encode maps (date, expense type, amount) to a feature vector. It is
// deterministic and has no side effects.
func Encode(date models.Date, expenseType models.ExpenseType, amount float64) (Encoding, error) {
	day := float64(date.Day())

	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= -1 {
		return Encoding{}, fmt.Errorf("%w: amount %v must be greater than -1", ErrInvalidInput, amount)
	}
	amountLog := math.Log1p(amount)

	angle := day * (2 * math.Pi / dayPeriod)
	daySin := math.Sin(angle)
	dayCos := math.Cos(angle)

	category, ok := expenseType.Category()
	if !ok {
		return Encoding{}, fmt.Errorf("%w: %q", ErrUnknownExpenseType, string(expenseType))
	}

	highAmount := 0.0
	if amount > highAmountThreshold {
		highAmount = 1
	}

	return Encoding{
		Features: Vector{amountLog, daySin, dayCos, highAmount, amountLog * daySin},
		Category: category,
	}, nil
}
