package server

import (
	"net/http"

	"opsgate/internal/gateway/handler"
	"opsgate/internal/gateway/middleware"
	"opsgate/internal/metrics"
)

func NewMux(
	interpretHandler *handler.InterpretHandler,
	confirmHandler *handler.ConfirmHandler,
	allowedOrigins []string,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/interpret", interpretHandler.HandleInterpret)
	mux.HandleFunc("/v1/confirmations/", confirmHandler.Route)

	mux.HandleFunc("/healthz", handler.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())

	return middleware.CORS(allowedOrigins, mux)
}
