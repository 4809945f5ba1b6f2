package user

import "errors"

var (
	ErrPersonNotFound           = errors.New("person not found")
	ErrAdministratorRequired    = errors.New("administrator access required")
	ErrSupervisorAccessRequired = errors.New("supervisor access required")
	ErrInsufficientPermissions  = errors.New("insufficient permissions")
	ErrMissingIdentity          = errors.New("user_id claim is missing or invalid")
)
