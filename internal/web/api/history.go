package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lonng/dicebox/db"
	"github.com/lonng/dicebox/db/model"
	"github.com/lonng/dicebox/internal/whitelist"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/lonng/nex"
)

func MakeHistoryService() http.Handler {
	router := mux.NewRouter()
	router.Handle("/v1/history", nex.Handler(historyList)).Methods("GET")          // paged roll list, newest first
	router.Handle("/v1/history/{rollId}", nex.Handler(historyByID)).Methods("GET") // one roll with its dice
	return router
}

func historyLite(r *model.Roll) protocol.RollHistory {
	return protocol.RollHistory{
		RollID:    r.RollId,
		Notation:  r.Notation,
		Source:    r.Source,
		Modifier:  r.Modifier,
		Total:     r.Total,
		Cleared:   r.Cleared,
		CreatedAt: r.CreatedAt,
	}
}

// HistoryByID loads a roll and its dice in submission order
func HistoryByID(rollID string) (*protocol.RollHistory, error) {
	r, dice, err := db.QueryRoll(rollID)
	if err != nil {
		return nil, err
	}

	h := historyLite(r)
	h.Dice = make([]protocol.DieResult, len(dice))
	for i, d := range dice {
		h.Dice[i] = protocol.DieResult{
			ID:         d.DieId,
			RollID:     d.RollId,
			GroupID:    d.GroupId,
			DieType:    protocol.DieType(d.DieType),
			Sides:      d.Sides,
			Theme:      d.Theme,
			ThemeColor: d.ThemeColor,
			Outcome:    protocol.Outcome(d.Outcome),
			Error:      d.Error,
		}
		if d.HasValue {
			v := d.Value
			h.Dice[i].Value = &v
		}
	}
	return &h, nil
}

func HistoryList(offset, count int) ([]protocol.RollHistory, int64, error) {
	rs, total, err := db.RollList(offset, count)
	if err != nil {
		return nil, 0, err
	}

	list := make([]protocol.RollHistory, len(rs))
	for i := range rs {
		list[i] = historyLite(&rs[i])
	}
	return list, total, nil
}

func historyList(r *http.Request, form *nex.Form) (*protocol.RollHistoryListResponse, error) {
	if !whitelist.VerifyIP(r.RemoteAddr) {
		return nil, errutil.ErrPermissionDenied
	}

	offset := form.IntOrDefault("offset", 0)
	count := form.IntOrDefault("count", db.DefaultPageSize)
	if offset < 0 || count < 0 {
		return nil, errutil.ErrInvalidParameter
	}

	list, total, err := HistoryList(offset, count)
	if err != nil {
		return nil, err
	}
	return &protocol.RollHistoryListResponse{Data: list, Total: total}, nil
}

func historyByID(r *http.Request) (*protocol.RollHistoryResponse, error) {
	if !whitelist.VerifyIP(r.RemoteAddr) {
		return nil, errutil.ErrPermissionDenied
	}
	id, ok := mux.Vars(r)["rollId"]
	if !ok || id == "" {
		return nil, errutil.ErrInvalidParameter
	}

	h, err := HistoryByID(id)
	if err != nil {
		return nil, err
	}
	return &protocol.RollHistoryResponse{Data: h}, nil
}
