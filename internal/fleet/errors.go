package fleet

import "errors"

// Validation failures reported to pilots. None of them is fatal to a session.
var (
	ErrInvalidCorpoCode     = errors.New("invalid corporation code")
	ErrMalformedCredentials = errors.New("pilot name required and pin must be 4 digits")
	ErrWrongPin             = errors.New("wrong pin")
	ErrInvalidAdminCode     = errors.New("invalid admin code")
	ErrCrewFull             = errors.New("crew is full")
	ErrShipNotFound         = errors.New("ship not found")
	ErrNoMatchingShips      = errors.New("no ship matches the given attributes")
	ErrPilotNotFound        = errors.New("pilot not found")
	ErrUnknownTarget        = errors.New("acquisition target is not an in-game ship")
	ErrEmptyCorpoCode       = errors.New("corporation code cannot be empty")
	ErrInvalidCriteria      = errors.New("ship id or ship name, source and insurance required")
)
