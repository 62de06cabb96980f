package handlers

import (
	"net/http"

	"github.com/Dosada05/song-bracket/services"
)

type OverrideVoteInput struct {
	VotedForID string `json:"voted_for_id"`
}

type VoteHandler struct {
	voteService services.VoteService
	brackets    services.BracketAdminService
}

func NewVoteHandler(vs services.VoteService, bas services.BracketAdminService) *VoteHandler {
	return &VoteHandler{
		voteService: vs,
		brackets:    bas,
	}
}

// SubmitVote godoc
// @Summary Проголосовать от имени класса
// @Tags votes
// @Description Один голос класса за матч. Матч должен быть открыт.
// @Accept json
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Param input body services.VoteInput true "Голос"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Не хватает данных или песня не участник матча"
// @Failure 404 {object} map[string]string "Матч или класс не найден"
// @Failure 409 {object} map[string]string "Класс уже голосовал или матч закрыт"
// @Failure 429 {object} map[string]string "Слишком много запросов"
// @Router /votes [post]
func (h *VoteHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	var input services.VoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	vote, err := h.voteService.SubmitVote(r.Context(), scope, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"vote": vote}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RetractVote godoc
// @Summary Отозвать голос класса
// @Tags votes
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Param match_id query string true "Match ID"
// @Param class_id query string true "Class ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /votes [delete]
func (h *VoteHandler) RetractVote(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	q := r.URL.Query()
	removed, err := h.voteService.RetractVote(r.Context(), scope, q.Get("match_id"), q.Get("class_id"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"removed": removed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// OverrideVote godoc
// @Summary Изменить выбор голоса (админ)
// @Tags votes
// @Accept json
// @Produce json
// @Param voteID path string true "Vote ID"
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Param input body OverrideVoteInput true "Новый выбор"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Голос не найден"
// @Router /admin/votes/{voteID} [patch]
func (h *VoteHandler) OverrideVote(w http.ResponseWriter, r *http.Request) {
	voteID, err := getIDFromURL(r, "voteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	var input OverrideVoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	vote, err := h.voteService.AdminOverrideVote(r.Context(), scope, voteID, input.VotedForID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"vote": vote}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
