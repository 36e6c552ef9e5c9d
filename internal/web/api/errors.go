package api

import (
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
)

// EncodeError renders handler errors with their error code
func EncodeError(err error) interface{} {
	return &protocol.ErrorResponse{
		Code:  errutil.Code(err),
		Error: err.Error(),
	}
}
