package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/song-bracket/middleware"
	"github.com/Dosada05/song-bracket/services"
)

type LoginInput struct {
	Password string `json:"password"`
}

type AuthHandler struct {
	authService  services.AuthService
	cookieSecure bool
}

func NewAuthHandler(authService services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

// Login godoc
// @Summary Вход администратора
// @Tags auth
// @Description Проверяет общий пароль и выставляет cookie admin_session.
// @Accept json
// @Produce json
// @Param input body LoginInput true "Пароль администратора"
// @Success 200 {object} map[string]interface{} "Сессия создана"
// @Failure 400 {object} map[string]string "Пустой пароль"
// @Failure 401 {object} map[string]string "Неверный пароль"
// @Router /admin/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Password == "" {
		badRequestResponse(w, r, errors.New("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), input.Password)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	response := jsonResponse{"expires_at": session.ExpiresAt}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Logout godoc
// @Summary Выход администратора
// @Tags auth
// @Success 204 "Cookie удалена"
// @Router /admin/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
