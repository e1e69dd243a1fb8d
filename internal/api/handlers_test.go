package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"strayfinder/internal/geometry"
	"strayfinder/internal/players"
	"strayfinder/internal/strand"
	"strayfinder/internal/tick"
	"strayfinder/internal/world"
	"strayfinder/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func testServer(t *testing.T) (*Server, *chi.Mux) {
	t.Helper()

	m := &world.Map{
		ID:                 "town",
		Name:               "Town",
		Roads:              []geometry.Road{{X0: 0, Y0: 0, X1: 10, Y1: 0}},
		DefaultSpeed:       1.0,
		DefaultBagCapacity: 3,
		LootValues:         []int{5, 3},
	}
	wr, err := world.NewRegistry([]*world.Map{m})
	if err != nil {
		t.Fatal(err)
	}
	pr := players.NewRegistry(wr, false, world.LootConfig{}, nil)
	pl := tick.New(wr, pr, time.Second)
	st := strand.New(8)
	go st.Run(context.Background())

	s := &Server{World: wr, Players: pr, Pipeline: pl, Strand: st}
	return s, s.router().(*chi.Mux)
}

func doJSON(t *testing.T, r *chi.Mux, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleListMaps(t *testing.T) {
	_, r := testServer(t)
	rec := doJSON(t, r, http.MethodGet, "/api/v1/maps", nil, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") == "no-cache" {
		t.Fatal("maps endpoint must not set Cache-Control: no-cache")
	}

	var out []mapSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "town" {
		t.Fatalf("unexpected maps list: %+v", out)
	}
}

func TestHandleGetMapUnknown(t *testing.T) {
	_, r := testServer(t)
	rec := doJSON(t, r, http.MethodGet, "/api/v1/maps/nowhere", nil, "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestJoinActionState(t *testing.T) {
	_, r := testServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/game/join", joinRequest{UserName: "X", MapID: "town"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Fatal("expected Cache-Control: no-cache on join response")
	}

	var joined joinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &joined); err != nil {
		t.Fatal(err)
	}
	if len(joined.AuthToken) != 32 {
		t.Fatalf("expected a 32-char token, got %q", joined.AuthToken)
	}
	if joined.PlayerID != 0 {
		t.Fatalf("expected playerId 0, got %d", joined.PlayerID)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/game/player/action", actionRequest{Move: "R"}, joined.AuthToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("action: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/game/state", nil, joined.AuthToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var state gameStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Players) != 1 || state.Players[0].Dir != "R" || state.Players[0].Speed == 0 {
		t.Fatalf("unexpected state: %+v", state.Players)
	}
}

func TestActionRequiresAuth(t *testing.T) {
	_, r := testServer(t)
	rec := doJSON(t, r, http.MethodPost, "/api/v1/game/player/action", actionRequest{Move: "R"}, "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTickRejectedWhenAutoTickEnabled(t *testing.T) {
	s, r := testServer(t)
	s.AutoTickEnabled = true

	rec := doJSON(t, r, http.MethodPost, "/api/v1/game/tick", tickRequest{TimeDeltaMs: 1000}, "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestJoinRejectsEmptyName(t *testing.T) {
	_, r := testServer(t)
	rec := doJSON(t, r, http.MethodPost, "/api/v1/game/join", joinRequest{UserName: "", MapID: "town"}, "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMethodNotAllowedIsJSON(t *testing.T) {
	_, r := testServer(t)
	rec := doJSON(t, r, http.MethodDelete, "/api/v1/maps", nil, "")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body, got %q: %v", rec.Body.String(), err)
	}
}
