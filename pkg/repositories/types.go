package repositories

import "errors"

type ErrNotFound struct {
	What string
}

func (e *ErrNotFound) Error() string {
	if e.What == "" {
		return "not found"
	}
	return e.What + " not found"
}

func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}
