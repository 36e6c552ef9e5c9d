package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/spf13/viper"
)

type idleWorld struct{}

func (idleWorld) Roll(context.Context, protocol.RollSpec) (*protocol.RollOutcome, error) {
	return nil, errutil.ErrNotInitialized
}

func (idleWorld) Add(context.Context, protocol.RollSpec) (*protocol.RollOutcome, error) {
	return nil, errutil.ErrNotInitialized
}

func (idleWorld) Reroll(context.Context, []protocol.DieResult) (*protocol.RollOutcome, error) {
	return nil, errutil.ErrNotInitialized
}

func (idleWorld) Remove(int64) error { return errutil.ErrNotInitialized }
func (idleWorld) Clear() error       { return errutil.ErrNotInitialized }

var handler = startupService(idleWorld{})

func get(t *testing.T, method, target, remote string, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if remote != "" {
		r.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestPing(t *testing.T) {
	w := get(t, "GET", "/ping", "", "")
	if strings.TrimSpace(w.Body.String()) != `"pong"` {
		t.Fatalf("ping = %q", w.Body.String())
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing cors header")
	}
}

func TestVersion(t *testing.T) {
	viper.Set("update.version", "1.2.3")
	defer viper.Set("update.version", "")

	w := get(t, "GET", "/v1/version", "", "")
	v := &protocol.Version{}
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatal(err)
	}
	if v.Version != "1.2.3" || v.Protocol != protocol.Revision {
		t.Fatalf("version = %+v", v)
	}
}

func TestOptions(t *testing.T) {
	w := get(t, http.MethodOptions, "/v1/roll", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "success") {
		t.Fatalf("options = %d %q", w.Code, w.Body.String())
	}
}

func TestWorldErrorCode(t *testing.T) {
	w := get(t, "POST", "/v1/add", "", `{"notation":"1d20"}`)
	e := &protocol.ErrorResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), e); err != nil {
		t.Fatal(err)
	}
	if e.Code != errutil.Code(errutil.ErrNotInitialized) {
		t.Fatalf("add before init = %q", w.Body.String())
	}
}

func TestBroadcastFilter(t *testing.T) {
	cases := map[string]int{
		"10.0.0.8:3000":  errutil.Code(errutil.ErrPermissionDenied),
		"127.0.0.1:3000": errutil.Code(errutil.ErrIllegalParameter), // allowed, message too short
		"[::1]:3000":     errutil.Code(errutil.ErrIllegalParameter),
		"garbage":        errutil.Code(errutil.ErrPermissionDenied),
	}

	for remote, code := range cases {
		w := get(t, "GET", "/v1/gm/broadcast?message=hi", remote, "")
		e := &protocol.ErrorResponse{}
		if err := json.Unmarshal(w.Body.Bytes(), e); err != nil {
			t.Fatal(err)
		}
		if e.Code != code {
			t.Fatalf("%s: code %d, want %d", remote, e.Code, code)
		}
	}
}
