package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/services"
)

type ClassHandler struct {
	classService services.ClassService
}

func NewClassHandler(cs services.ClassService) *ClassHandler {
	return &ClassHandler{classService: cs}
}

// ListActiveClasses godoc
// @Summary Список классов для голосования
// @Tags classes
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /classes [get]
func (h *ClassHandler) ListActiveClasses(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListClasses godoc
// @Summary Список классов (админ)
// @Tags classes
// @Produce json
// @Param include_retired query bool false "Включать удалённые классы"
// @Success 200 {object} map[string]interface{}
// @Router /admin/classes [get]
func (h *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	includeRetired, _ := strconv.ParseBool(r.URL.Query().Get("include_retired"))
	h.list(w, r, includeRetired)
}

func (h *ClassHandler) list(w http.ResponseWriter, r *http.Request, includeRetired bool) {
	classes, err := h.classService.ListClasses(r.Context(), includeRetired)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"classes": classes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateClass godoc
// @Summary Добавить класс
// @Tags classes
// @Accept json
// @Produce json
// @Param input body services.ClassInput true "Класс"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Пустое имя"
// @Router /admin/classes [post]
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var input services.ClassInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	class, err := h.classService.AddClass(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"class": class}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RenameClass godoc
// @Summary Переименовать класс
// @Tags classes
// @Accept json
// @Produce json
// @Param classID path string true "Class ID"
// @Param input body services.ClassInput true "Новое имя"
// @Success 200 {object} map[string]interface{}
// @Router /admin/classes/{classID} [patch]
func (h *ClassHandler) RenameClass(w http.ResponseWriter, r *http.Request) {
	classID, err := getIDFromURL(r, "classID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ClassInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	class, err := h.classService.RenameClass(r.Context(), classID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"class": class}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RetireClass godoc
// @Summary Удалить класс (мягко)
// @Tags classes
// @Produce json
// @Param classID path string true "Class ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/classes/{classID} [delete]
func (h *ClassHandler) RetireClass(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.classService.RetireClass)
}

// RestoreClass godoc
// @Summary Восстановить класс
// @Tags classes
// @Produce json
// @Param classID path string true "Class ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/classes/{classID}/restore [post]
func (h *ClassHandler) RestoreClass(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.classService.RestoreClass)
}

func (h *ClassHandler) setStatus(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, classID string) (*models.VoterGroup, error),
) {
	classID, err := getIDFromURL(r, "classID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	class, err := apply(r.Context(), classID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"class": class}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MoveClass godoc
// @Summary Переместить класс вверх или вниз
// @Tags classes
// @Accept json
// @Produce json
// @Param classID path string true "Class ID"
// @Param input body MoveInput true "Направление: up или down"
// @Success 200 {object} map[string]interface{} "Новый порядок классов"
// @Router /admin/classes/{classID}/move [post]
func (h *ClassHandler) MoveClass(w http.ResponseWriter, r *http.Request) {
	classID, err := getIDFromURL(r, "classID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input MoveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	classes, err := h.classService.MoveClass(r.Context(), classID, input.Direction)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"classes": classes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
