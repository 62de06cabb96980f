package handlers

import (
	"net/http"

	"github.com/Dosada05/song-bracket/services"
)

// BracketAdminHandler управляет записями сеток: создание, активация, миграция legacy.
type BracketAdminHandler struct {
	adminService services.BracketAdminService
}

func NewBracketAdminHandler(s services.BracketAdminService) *BracketAdminHandler {
	return &BracketAdminHandler{adminService: s}
}

// ListBrackets godoc
// @Summary Список сеток
// @Tags brackets
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /admin/brackets [get]
func (h *BracketAdminHandler) ListBrackets(w http.ResponseWriter, r *http.Request) {
	list, err := h.adminService.ListBrackets(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"brackets": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateBracket godoc
// @Summary Создать сетку
// @Tags brackets
// @Description Первая созданная сетка сразу становится активной.
// @Accept json
// @Produce json
// @Param input body services.BracketInput true "Название"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Пустое название"
// @Router /admin/brackets [post]
func (h *BracketAdminHandler) CreateBracket(w http.ResponseWriter, r *http.Request) {
	var input services.BracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.adminService.CreateBracket(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ActivateBracket godoc
// @Summary Сделать сетку активной
// @Tags brackets
// @Produce json
// @Param bracketID path string true "Bracket ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Сетка не найдена"
// @Router /admin/brackets/{bracketID}/activate [post]
func (h *BracketAdminHandler) ActivateBracket(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.adminService.ActivateBracket(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MigrateLegacy godoc
// @Summary Перенести legacy-данные в новую сетку
// @Tags brackets
// @Accept json
// @Produce json
// @Param input body services.BracketInput true "Название новой сетки"
// @Success 201 {object} map[string]interface{}
// @Router /admin/brackets/migrate [post]
func (h *BracketAdminHandler) MigrateLegacy(w http.ResponseWriter, r *http.Request) {
	var input services.BracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.adminService.MigrateLegacy(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"migration": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
