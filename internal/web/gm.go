package web

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/lonng/dicebox/internal/game"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/lonng/nex"
	"github.com/pkg/errors"
)

const minBroadcastLen = 5

// authFilter only lets loopback callers through
func authFilter(ctx context.Context, r *http.Request) (context.Context, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ctx, errutil.ErrPermissionDenied
	}

	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return ctx, errutil.ErrPermissionDenied
	}

	return ctx, nil
}

func broadcast(query *nex.Form) (*protocol.StringMessage, error) {
	message := strings.TrimSpace(query.Get("message"))
	if len(message) < minBroadcastLen {
		return nil, errors.Wrapf(errutil.ErrIllegalParameter, "message shorter than %d", minBroadcastLen)
	}
	logger.Infof("broadcast system message: %s", message)
	game.BroadcastSystemMessage(message)
	return protocol.SuccessMessage, nil
}
