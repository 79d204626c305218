package models

import (
	"errors"
	"fmt"
)

// ErrUnknownExpenseType is returned for values outside the fixed enumeration.
var ErrUnknownExpenseType = errors.New("unknown expense type")

// ExpenseType is the category of an expense.
type ExpenseType string

const (
	Food          ExpenseType = "Food"
	Entertainment ExpenseType = "Entertainment"
	Shopping      ExpenseType = "Shopping"
	Bills         ExpenseType = "Bills"
	Transport     ExpenseType = "Transport"
)

// categoryIndex must match the encoding the classifier was trained with.
var categoryIndex = map[ExpenseType]int{
	Food:          0,
	Entertainment: 1,
	Shopping:      2,
	Bills:         3,
	Transport:     4,
}

// ExpenseTypes lists the enumeration in category order.
func ExpenseTypes() []ExpenseType {
	return []ExpenseType{Food, Entertainment, Shopping, Bills, Transport}
}

// ParseExpenseType matches s exactly against the enumeration.
func ParseExpenseType(s string) (ExpenseType, error) {
	t := ExpenseType(s)
	if _, ok := categoryIndex[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownExpenseType, s)
	}
	return t, nil
}

// Category returns the numeric category of t.
func (t ExpenseType) Category() (int, bool) {
	c, ok := categoryIndex[t]
	return c, ok
}
