package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerGameRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/games", handler.ListGames)
	mux.HandleFunc("GET /v1/games/live", handler.ListLiveGames)
	mux.HandleFunc("GET /v1/games/recent", handler.ListRecentGames)
	mux.HandleFunc("GET /v1/games/{gameID}", handler.GetGame)
	mux.HandleFunc("GET /v1/games/{gameID}/teams/{side}/stats", handler.GetTeamStats)
	mux.HandleFunc("GET /v1/games/{gameID}/plays", handler.ListGamePlays)
	mux.HandleFunc("GET /v1/poller/status", handler.PollerStatus)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalToken string) {
	mux.Handle("POST /v1/internal/poller/poll", RequireInternalToken(internalToken, http.HandlerFunc(handler.TriggerPoll)))
}
