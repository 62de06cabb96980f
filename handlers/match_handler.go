package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
	"github.com/Dosada05/song-bracket/services"
)

type ResolveMatchInput struct {
	WinnerID string `json:"winner_id"`
}

type MatchHandler struct {
	matchService services.MatchService
	voteService  services.VoteService
	brackets     services.BracketAdminService
}

func NewMatchHandler(ms services.MatchService, vs services.VoteService, bas services.BracketAdminService) *MatchHandler {
	return &MatchHandler{
		matchService: ms,
		voteService:  vs,
		brackets:     bas,
	}
}

// matchRequest разбирает scope и matchID. При ошибке ответ уже записан.
func (h *MatchHandler) matchRequest(w http.ResponseWriter, r *http.Request) (models.BracketScope, string, bool) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return models.BracketScope{}, "", false
	}
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return models.BracketScope{}, "", false
	}
	return scope, matchID, true
}

// ListMatches godoc
// @Summary Список матчей сетки
// @Tags matches
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Param status query string false "locked, open или closed"
// @Param round query int false "Номер раунда"
// @Success 200 {object} map[string]interface{}
// @Router /admin/matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	var filter repositories.MatchFilter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := models.MatchStatus(s)
		filter.Status = &status
	}
	if s := q.Get("round"); s != "" {
		round, err := strconv.Atoi(s)
		if err != nil || round <= 0 {
			badRequestResponse(w, r, fmt.Errorf("invalid round value: %q", s))
			return
		}
		filter.Round = &round
	}

	matches, err := h.matchService.ListMatches(r.Context(), scope, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// OpenMatch godoc
// @Summary Открыть матч для голосования
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID, например r1-m1"
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Матч не заблокирован или участники неизвестны"
// @Router /admin/matches/{matchID}/open [post]
func (h *MatchHandler) OpenMatch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.matchService.OpenMatch)
}

// UnopenMatch godoc
// @Summary Вернуть открытый матч в заблокированное состояние
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Матч не открыт"
// @Router /admin/matches/{matchID}/unopen [post]
func (h *MatchHandler) UnopenMatch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.matchService.UnopenMatch)
}

func (h *MatchHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, scope models.BracketScope, matchID string) (*models.Match, error),
) {
	scope, matchID, ok := h.matchRequest(w, r)
	if !ok {
		return
	}

	match, err := apply(r.Context(), scope, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResolveMatch godoc
// @Summary Закрыть матч и продвинуть победителя
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Param input body ResolveMatchInput true "Победитель"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Победитель не участник матча"
// @Failure 409 {object} map[string]string "Матч не открыт"
// @Router /admin/matches/{matchID}/resolve [post]
func (h *MatchHandler) ResolveMatch(w http.ResponseWriter, r *http.Request) {
	scope, matchID, ok := h.matchRequest(w, r)
	if !ok {
		return
	}

	var input ResolveMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ResolveMatch(r.Context(), scope, matchID, input.WinnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatchVotes godoc
// @Summary Голоса по матчу
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} map[string]interface{}
// @Router /admin/matches/{matchID}/votes [get]
func (h *MatchHandler) ListMatchVotes(w http.ResponseWriter, r *http.Request) {
	scope, matchID, ok := h.matchRequest(w, r)
	if !ok {
		return
	}

	votes, err := h.voteService.ListVotes(r.Context(), scope, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"votes": votes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ClearMatchVotes godoc
// @Summary Удалить все голоса матча
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} map[string]interface{}
// @Router /admin/matches/{matchID}/votes [delete]
func (h *MatchHandler) ClearMatchVotes(w http.ResponseWriter, r *http.Request) {
	scope, matchID, ok := h.matchRequest(w, r)
	if !ok {
		return
	}

	removed, err := h.matchService.ClearVotes(r.Context(), scope, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"removed": removed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MatchTally godoc
// @Summary Подсчёт голосов матча
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} map[string]interface{} "song id -> число голосов"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /matches/{matchID}/tally [get]
func (h *MatchHandler) MatchTally(w http.ResponseWriter, r *http.Request) {
	scope, matchID, ok := h.matchRequest(w, r)
	if !ok {
		return
	}

	tally, err := h.voteService.Tally(r.Context(), scope, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match_id": matchID, "tally": tally}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
