package establishment

import "errors"

var (
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrEstablishmentInactive = errors.New("establishment is inactive")
	ErrPositionNotRecorded   = errors.New("establishment has no recorded position")
	ErrInvalidRadius         = errors.New("check-in radius must be between 10 and 1000 meters")
	ErrSectorNotFound        = errors.New("sector not found")
)
