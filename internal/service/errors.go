package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/bandmates/internal/membership"
)

// membershipError maps a membership failure to its connect status.
func membershipError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch membership.KindOf(err) {
	case membership.KindNotFound:
		return connect.NewError(connect.CodeNotFound, err)
	case membership.KindBadRequest:
		return connect.NewError(connect.CodeInvalidArgument, err)
	case membership.KindConflict:
		return connect.NewError(connect.CodeAborted, err)
	case membership.KindForbidden:
		return connect.NewError(connect.CodePermissionDenied, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
