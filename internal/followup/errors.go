package followup

import "errors"

var (
	ErrTaskNotFound       = errors.New("followup: task not found")
	ErrActionItemNotFound = errors.New("followup: action item not found")
)
