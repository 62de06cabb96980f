package handlers

import (
	"net/http"

	"github.com/Dosada05/song-bracket/services"
)

type ViewHandler struct {
	viewService services.ViewService
	brackets    services.BracketAdminService
}

func NewViewHandler(vs services.ViewService, bas services.BracketAdminService) *ViewHandler {
	return &ViewHandler{
		viewService: vs,
		brackets:    bas,
	}
}

// CurrentBracket godoc
// @Summary Сетка с подсчётом голосов
// @Tags views
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} services.BracketView
// @Failure 409 {object} map[string]string "Нет активной сетки"
// @Router /brackets/current [get]
func (h *ViewHandler) CurrentBracket(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	view, err := h.viewService.BracketView(r.Context(), scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Voting godoc
// @Summary Данные страницы голосования
// @Tags views
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} services.VotingView
// @Router /voting [get]
func (h *ViewHandler) Voting(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	view, err := h.viewService.VotingView(r.Context(), scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
