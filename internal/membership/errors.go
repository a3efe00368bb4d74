package membership

import "errors"

// Kind classifies membership failures so transports can map them to status codes.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindBadRequest
	KindConflict
	KindForbidden
	KindInternalConsistency
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInternalConsistency:
		return "internal_consistency"
	default:
		return "unknown"
	}
}

// Error is a classified membership failure.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

var (
	ErrBandNotFound   = &Error{Kind: KindNotFound, Msg: "band not found"}
	ErrMemberNotFound = &Error{Kind: KindNotFound, Msg: "member not found"}
	ErrNotPerforming  = &Error{Kind: KindNotFound, Msg: "band is not performing"}

	ErrUserNotFound      = &Error{Kind: KindBadRequest, Msg: "user not found"}
	ErrInvalidBand       = &Error{Kind: KindBadRequest, Msg: "band requires a name and a handle of 3-30 letters, digits, '.', '_' or '-'"}
	ErrInvalidRole       = &Error{Kind: KindBadRequest, Msg: "invalid role"}
	ErrOwnershipTransfer = &Error{Kind: KindBadRequest, Msg: "only the owner can transfer the ownership"}

	ErrBandBusy          = &Error{Kind: KindConflict, Msg: "band busy: cannot be edited while a performance is in progress"}
	ErrHandleTaken       = &Error{Kind: KindConflict, Msg: "handle is already taken"}
	ErrAlreadyPerforming = &Error{Kind: KindConflict, Msg: "band is already performing"}

	ErrOwnerImmutable   = &Error{Kind: KindForbidden, Msg: "owner cannot be edited"}
	ErrOwnerRemoval     = &Error{Kind: KindForbidden, Msg: "owner cannot be removed"}
	ErrInsufficientRole = &Error{Kind: KindForbidden, Msg: "you don't have permission to perform this action"}

	ErrNoOwner = &Error{Kind: KindInternalConsistency, Msg: "band has no owner"}
)

// KindOf returns the Kind of the first *Error in err's chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
