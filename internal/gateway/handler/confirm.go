package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"opsgate/internal/audit"
	"opsgate/internal/confirm"
)

// ConfirmHandler serves the confirmation endpoints under /v1/confirmations/.
type ConfirmHandler struct {
	flow   *confirm.Workflow
	trail  audit.Store
	logger *zap.Logger
}

func NewConfirmHandler(flow *confirm.Workflow, trail audit.Store, logger *zap.Logger) *ConfirmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmHandler{flow: flow, trail: trail, logger: logger}
}

// Route dispatches /v1/confirmations/{token}, /{token}/audit and /{token}/watch.
func (h *ConfirmHandler) Route(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/confirmations/"), "/")
	if rest == "" {
		writeError(w, http.StatusNotFound, "token_not_found", "confirmation token required")
		return
	}
	parts := strings.SplitN(rest, "/", 2)
	token := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, token)
		case http.MethodPost:
			h.handleDecide(w, r, token)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET or POST required")
		}
		return
	}

	switch parts[1] {
	case "audit":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
			return
		}
		h.handleAudit(w, r, token)
	case "watch":
		h.handleWatch(w, r, token)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown confirmation endpoint")
	}
}

type decideRequest struct {
	Decision string `json:"decision"`
}

func (h *ConfirmHandler) handleDecide(w http.ResponseWriter, r *http.Request, token string) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	decision, err := confirm.ParseDecision(req.Decision)
	if err != nil {
		respondError(w, err)
		return
	}

	rec, err := h.flow.Decide(r.Context(), token, decision)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ConfirmHandler) handleGet(w http.ResponseWriter, r *http.Request, token string) {
	rec, err := h.flow.Get(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type auditResponse struct {
	Token   string        `json:"token"`
	Entries []audit.Entry `json:"entries"`
}

func (h *ConfirmHandler) handleAudit(w http.ResponseWriter, r *http.Request, token string) {
	entries, err := h.trail.ListByToken(r.Context(), token)
	if err != nil {
		h.logger.Error("audit list failed", zap.String("token", token), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "audit lookup failed")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, auditResponse{Token: token, Entries: entries})
}
