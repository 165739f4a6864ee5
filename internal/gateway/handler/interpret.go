package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"opsgate/internal/confirm"
	"opsgate/internal/interpret"
)

// InterpretHandler turns free-form operator text into a pending confirmation.
type InterpretHandler struct {
	parser      *interpret.Parser
	flow        *confirm.Workflow
	preferModel bool
	logger      *zap.Logger
}

func NewInterpretHandler(parser *interpret.Parser, flow *confirm.Workflow, preferModel bool, logger *zap.Logger) *InterpretHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterpretHandler{parser: parser, flow: flow, preferModel: preferModel, logger: logger}
}

type interpretRequest struct {
	Text        string `json:"text"`
	PreferModel *bool  `json:"prefer_model,omitempty"`
}

type interpretResponse struct {
	confirm.Record
	Summary string `json:"summary"`
}

func (h *InterpretHandler) HandleInterpret(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}

	var req interpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	prefer := h.preferModel
	if req.PreferModel != nil {
		prefer = *req.PreferModel
	}

	cmd, err := h.parser.Parse(r.Context(), req.Text, prefer)
	if err != nil {
		respondError(w, err)
		return
	}

	rec := h.flow.Register(r.Context(), cmd)
	h.logger.Info("confirmation registered",
		zap.String("token", rec.Token),
		zap.String("action", string(cmd.Action)),
		zap.String("name", cmd.Name),
	)
	writeJSON(w, http.StatusCreated, interpretResponse{Record: rec, Summary: cmd.Summary()})
}
