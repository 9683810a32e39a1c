package service

import "errors"

// 数据录入冲突类错误（调用方可更正），用 errors.Is 判断
var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidField         = errors.New("invalid field")
	ErrDuplicateRoom        = errors.New("room already exists")
	ErrDuplicateEmail       = errors.New("a resident with this email already exists")
	ErrRoomFull             = errors.New("room is at full capacity")
	ErrRoomNotFound         = errors.New("room not found")
	ErrDuplicateBuilding    = errors.New("building already exists")
	ErrDivisionUndefined    = errors.New("occupancy percentage undefined: no rooms")

	ErrDuplicateUser      = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// IsUserError reports whether err is a data-entry conflict rather than a
// storage fault.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrMissingRequiredField, ErrInvalidField, ErrDuplicateRoom, ErrDuplicateEmail,
		ErrRoomFull, ErrRoomNotFound, ErrDuplicateBuilding, ErrDivisionUndefined,
		ErrDuplicateUser, ErrInvalidCredentials, ErrNotLoggedIn,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
