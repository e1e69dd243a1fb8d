package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"strayfinder/internal/apperr"
	"strayfinder/internal/geometry"
	"strayfinder/internal/store"
	"strayfinder/internal/tick"
	"strayfinder/pkg/logger"
)

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

type mapSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// handleListMaps lists every configured map's {id,name}. Reads the
// immutable map catalogue directly: it never changes after startup, so no
// strand round trip is needed.
func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps := s.World.Maps()
	out := make([]mapSummary, len(maps))
	for i, m := range maps {
		out[i] = mapSummary{ID: m.ID, Name: m.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

type roadView struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type buildingView struct {
	X, Y, W, H int
}

type officeView struct {
	ID      string `json:"id"`
	X, Y    int
	OffsetX int `json:"offsetX"`
	OffsetY int `json:"offsetY"`
}

type mapDetail struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DogSpeed    float64           `json:"dogSpeed"`
	BagCapacity int               `json:"bagCapacity"`
	Roads       []roadView        `json:"roads"`
	Buildings   []buildingView    `json:"buildings"`
	Offices     []officeView      `json:"offices"`
	LootTypes   []json.RawMessage `json:"lootTypes"`
}

// handleGetMap returns the full map description, including the opaque
// lootTypes array carried through verbatim from config.
func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m := s.World.Find(id)
	if m == nil {
		writeAPIError(w, apperr.NewValidation(apperr.UnknownMap, "map not found"))
		return
	}

	roads := make([]roadView, len(m.Roads))
	for i, rd := range m.Roads {
		if rd.Horizontal() {
			x1 := rd.X1
			roads[i] = roadView{X0: rd.X0, Y0: rd.Y0, X1: &x1}
		} else {
			y1 := rd.Y1
			roads[i] = roadView{X0: rd.X0, Y0: rd.Y0, Y1: &y1}
		}
	}
	buildings := make([]buildingView, len(m.Buildings))
	for i, b := range m.Buildings {
		buildings[i] = buildingView{X: b.X, Y: b.Y, W: b.W, H: b.H}
	}
	offices := make([]officeView, len(m.Offices))
	for i, o := range m.Offices {
		offices[i] = officeView{ID: o.ID, X: o.X, Y: o.Y, OffsetX: o.OffsetX, OffsetY: o.OffsetY}
	}

	writeJSON(w, http.StatusOK, mapDetail{
		ID:          m.ID,
		Name:        m.Name,
		DogSpeed:    m.DefaultSpeed,
		BagCapacity: m.DefaultBagCapacity,
		Roads:       roads,
		Buildings:   buildings,
		Offices:     offices,
		LootTypes:   m.LootRaw,
	})
}

type joinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

type joinResponse struct {
	AuthToken string `json:"authToken"`
	PlayerID  int    `json:"playerId"`
}

// handleJoin creates a new player on the strand, since it mutates the
// shared session/dog/token state.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := readJSON(r, &req); err != nil {
		writeAPIError(w, err)
		return
	}

	var resp joinResponse
	err := s.Strand.Submit(r.Context(), func() error {
		token, playerID, err := s.Players.Join(req.UserName, req.MapID)
		if err != nil {
			return err
		}
		resp = joinResponse{AuthToken: token, PlayerID: playerID}
		return nil
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type playerNameView struct {
	Name string `json:"name"`
}

// handleGamePlayers returns {dogId: {name}} for every player sharing the
// caller's session.
func (s *Server) handleGamePlayers(w http.ResponseWriter, r *http.Request) {
	token := tokenFromContext(r)

	var resp map[int]playerNameView
	err := s.Strand.Submit(r.Context(), func() error {
		self, err := s.Players.FindByToken(token)
		if err != nil {
			return err
		}
		resp = make(map[int]playerNameView)
		for _, p := range s.Players.Players() {
			if p.Session == self.Session {
				resp[p.ID()] = playerNameView{Name: p.Dog.Name}
			}
		}
		return nil
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type dogStateView struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Speed float64 `json:"speed"`
	Dir   string  `json:"dir"`
	Score int     `json:"score"`
}

type lostObjectView struct {
	ID   int     `json:"id"`
	Type int     `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type gameStateResponse struct {
	Players     []dogStateView   `json:"players"`
	LostObjects []lostObjectView `json:"lostObjects"`
}

// handleGameState returns every player and lost object in the caller's
// session.
func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	token := tokenFromContext(r)

	var resp gameStateResponse
	err := s.Strand.Submit(r.Context(), func() error {
		self, err := s.Players.FindByToken(token)
		if err != nil {
			return err
		}
		resp.Players = make([]dogStateView, 0)
		resp.LostObjects = make([]lostObjectView, 0)
		for _, p := range s.Players.Players() {
			if p.Session != self.Session {
				continue
			}
			d := p.Dog
			resp.Players = append(resp.Players, dogStateView{
				ID: d.ID, Name: d.Name, X: d.Position[0], Y: d.Position[1],
				Speed: d.Velocity.Len(), Dir: d.Direction.String(), Score: p.Score,
			})
		}
		for _, obj := range self.Session.LostObjects() {
			resp.LostObjects = append(resp.LostObjects, lostObjectView{
				ID: obj.ID, Type: obj.Type, X: obj.Position[0], Y: obj.Position[1],
			})
		}
		return nil
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type actionRequest struct {
	Move string `json:"move"`
}

// handlePlayerAction applies a move command to the caller's dog. An empty
// move string stops the dog without changing its facing, per spec.md §4.8.
func (s *Server) handlePlayerAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := readJSON(r, &req); err != nil {
		writeAPIError(w, err)
		return
	}
	token := tokenFromContext(r)

	err := s.Strand.Submit(r.Context(), func() error {
		p, err := s.Players.FindByToken(token)
		if err != nil {
			return err
		}
		if req.Move == "" {
			p.Dog.Stop()
			return nil
		}
		dir, ok := geometry.DirectionFromString(req.Move)
		if !ok {
			return apperr.NewValidation(apperr.InvalidDirection, "unrecognized move code")
		}
		p.Dog.SetDirection(dir, p.Session.Map.DefaultSpeed)
		return nil
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

type tickRequest struct {
	TimeDeltaMs int64 `json:"timeDelta"`
}

// handleTick drives the simulation externally. It is rejected outright
// when auto-tick is enabled, per the tick-provider mutual-exclusion design
// note in spec.md §9.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if s.AutoTickEnabled {
		writeAPIError(w, apperr.NewValidation(apperr.InvalidTime, "external ticks are disabled while auto-tick is running"))
		return
	}

	var req tickRequest
	if err := readJSON(r, &req); err != nil {
		writeAPIError(w, err)
		return
	}
	if req.TimeDeltaMs < 0 {
		writeAPIError(w, apperr.NewValidation(apperr.InvalidTime, "timeDelta must be >= 0"))
		return
	}

	dt := msToDuration(req.TimeDeltaMs)
	var retirements []tick.Retirement
	err := s.Strand.Submit(r.Context(), func() error {
		rets, err := s.Pipeline.Tick(dt)
		if err != nil {
			return err
		}
		retirements = rets
		return nil
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	s.recordRetirements(r.Context(), retirements)
	writeJSON(w, http.StatusOK, struct{}{})
}

type recordsResponse struct {
	Records []store.Record `json:"records"`
}

// handleRecords returns a page of the retirement leaderboard. start
// defaults to 0, maxItems defaults to store.DefaultMaxItems when the query
// parameter is absent entirely (as opposed to explicitly "0").
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	start := 0
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeAPIError(w, apperr.NewValidation(apperr.InvalidStart, "start must be an integer"))
			return
		}
		start = parsed
	}

	maxItems := store.DefaultMaxItems
	if v := r.URL.Query().Get("maxItems"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeAPIError(w, apperr.NewValidation(apperr.InvalidMaxItems, "maxItems must be an integer"))
			return
		}
		maxItems = parsed
	}

	records, err := s.Leaderboard.GetPlayersScore(r.Context(), start, maxItems)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recordsResponse{Records: records})
}

// recordRetirements persists every retirement the tick produced. A write
// failure is logged but never unwinds the request: the player has already
// been removed from the session regardless of leaderboard durability, per
// spec.md §7.
func (s *Server) recordRetirements(ctx context.Context, retirements []tick.Retirement) {
	for _, ret := range retirements {
		if err := s.Leaderboard.AddPlayerScore(ctx, ret.Name, ret.Score, ret.PlayTimeMs); err != nil {
			logger.Log.WithError(err).WithField("player", ret.Name).Warn("failed to persist retirement record")
		}
	}
}
