package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/song-bracket/services"
)

type MoveInput struct {
	Direction services.Direction `json:"direction"`
}

type SongHandler struct {
	songService services.SongService
	brackets    services.BracketAdminService
}

func NewSongHandler(ss services.SongService, bas services.BracketAdminService) *SongHandler {
	return &SongHandler{
		songService: ss,
		brackets:    bas,
	}
}

// ListSongs godoc
// @Summary Список песен сетки
// @Tags songs
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Param include_retired query bool false "Включать удалённые песни"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Нет сессии администратора"
// @Failure 409 {object} map[string]string "Нет активной сетки"
// @Router /admin/songs [get]
func (h *SongHandler) ListSongs(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}
	includeRetired, _ := strconv.ParseBool(r.URL.Query().Get("include_retired"))

	songs, err := h.songService.ListSongs(r.Context(), scope, includeRetired)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"songs": songs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateSong godoc
// @Summary Добавить песню
// @Tags songs
// @Accept json
// @Produce json
// @Param bracket_id query string false "ID сетки (по умолчанию активная)"
// @Param input body services.CreateSongInput true "Песня"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Не заполнены название или исполнитель"
// @Router /admin/songs [post]
func (h *SongHandler) CreateSong(w http.ResponseWriter, r *http.Request) {
	scope, ok := resolveScope(w, r, h.brackets)
	if !ok {
		return
	}

	var input services.CreateSongInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	song, err := h.songService.AddSong(r.Context(), scope, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"song": song}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateSong godoc
// @Summary Изменить песню
// @Tags songs
// @Accept json
// @Produce json
// @Param songID path string true "Song ID"
// @Param input body services.UpdateSongInput true "Изменяемые поля"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Песня не найдена"
// @Router /admin/songs/{songID} [patch]
func (h *SongHandler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	songID, err := getIDFromURL(r, "songID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateSongInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	song, err := h.songService.UpdateSong(r.Context(), songID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"song": song}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RetireSong godoc
// @Summary Удалить песню (мягко)
// @Tags songs
// @Produce json
// @Param songID path string true "Song ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/songs/{songID} [delete]
func (h *SongHandler) RetireSong(w http.ResponseWriter, r *http.Request) {
	songID, err := getIDFromURL(r, "songID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	song, err := h.songService.RetireSong(r.Context(), songID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"song": song}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RestoreSong godoc
// @Summary Восстановить песню
// @Tags songs
// @Produce json
// @Param songID path string true "Song ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/songs/{songID}/restore [post]
func (h *SongHandler) RestoreSong(w http.ResponseWriter, r *http.Request) {
	songID, err := getIDFromURL(r, "songID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	song, err := h.songService.RestoreSong(r.Context(), songID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"song": song}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MoveSong godoc
// @Summary Переместить песню вверх или вниз
// @Tags songs
// @Accept json
// @Produce json
// @Param songID path string true "Song ID"
// @Param input body MoveInput true "Направление: up или down"
// @Success 200 {object} map[string]interface{} "Новый порядок песен"
// @Failure 409 {object} map[string]string "Удалённую песню переместить нельзя"
// @Router /admin/songs/{songID}/move [post]
func (h *SongHandler) MoveSong(w http.ResponseWriter, r *http.Request) {
	songID, err := getIDFromURL(r, "songID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input MoveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	songs, err := h.songService.MoveSong(r.Context(), songID, input.Direction)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"songs": songs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
