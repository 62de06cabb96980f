package handlers

import (
	"net/http"

	"github.com/Dosada05/song-bracket/services"
)

type GenerateBracketInput struct {
	Size int `json:"size"`
}

type BracketHandler struct {
	bracketService services.BracketService
	exportService  services.ExportService
	brackets       services.BracketAdminService
}

func NewBracketHandler(bs services.BracketService, es services.ExportService, bas services.BracketAdminService) *BracketHandler {
	return &BracketHandler{
		bracketService: bs,
		exportService:  es,
		brackets:       bas,
	}
}

// GenerateBracket godoc
// @Summary Сгенерировать сетку
// @Tags bracket
// @Description Удаляет все матчи и голоса сетки и строит новое дерево из активных песен.
// @Accept json
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Param input body GenerateBracketInput true "Размер сетки (степень двойки)"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неверный размер или недостаточно песен"
// @Router /admin/bracket/generate [post]
func (h *BracketHandler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	var input GenerateBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.GenerateBracket(r.Context(), scope, input.Size)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteBracket godoc
// @Summary Удалить матчи и голоса сетки
// @Tags bracket
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} map[string]interface{}
// @Router /admin/bracket [delete]
func (h *BracketHandler) DeleteBracket(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	result, err := h.bracketService.DeleteBracket(r.Context(), scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportBracket godoc
// @Summary Выгрузить снимок сетки в объектное хранилище
// @Tags bracket
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Хранилище не настроено"
// @Router /admin/brackets/export [post]
func (h *BracketHandler) ExportBracket(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	export, err := h.exportService.Export(r.Context(), scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"export": export}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
