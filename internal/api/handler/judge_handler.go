package handler

import (
	"net/http"

	"codearena/internal/api/middleware"
	"codearena/internal/common"
	"codearena/internal/judge"

	"github.com/go-chi/chi/v5"
)

// JudgeHandler exposes judge server health to admins.
type JudgeHandler struct {
	client *judge.Client
}

func NewJudgeHandler(client *judge.Client) *JudgeHandler {
	return &JudgeHandler{client: client}
}

func (h *JudgeHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)
	r.Get("/ping", h.ping)
}

func (h *JudgeHandler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		common.RespondWithError(w, http.StatusServiceUnavailable, "Judge server unreachable: "+err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
