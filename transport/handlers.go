package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/goliatone/go-tally/core"
)

type ingestResponse struct {
	Outcome         core.IngestOutcome `json:"outcome"`
	TotalMinorUnits int64              `json:"total_minor_units,omitempty"`
	Metadata        map[string]any     `json:"metadata,omitempty"`
}

type ledgerResponse struct {
	TotalMinorUnits int64               `json:"total_minor_units"`
	TotalMajorUnits int64               `json:"total_major_units"`
	LatestPayment   *core.LatestPayment `json:"latest_payment,omitempty"`
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		writeError(w, core.StorageError(nil, "transport: ingest service is not configured", nil))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		writeError(w, core.ValidationError(
			"transport: request body unreadable or too large",
			core.TallyErrorBadInput,
			nil,
		))
		return
	}

	result, err := h.service.IngestEvent(r.Context(), core.IngestRequest{
		Body:            body,
		SignatureHeader: r.Header.Get(h.signatureHeader),
		Metadata: map[string]any{
			"remote_addr": r.RemoteAddr,
		},
	})
	if err != nil {
		h.logger.Info("webhook delivery rejected",
			"status", result.StatusCode,
			"error", err,
		)
		writeError(w, err)
		return
	}

	writeJSON(w, result.StatusCode, ingestResponse{
		Outcome:         result.Outcome,
		TotalMinorUnits: result.TotalMinorUnits,
		Metadata:        result.Metadata,
	})
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		writeError(w, core.StorageError(nil, "transport: ledger service is not configured", nil))
		return
	}

	ledger, err := h.service.GetLedger(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ledgerResponse{
		TotalMinorUnits: ledger.TotalMinorUnits,
		TotalMajorUnits: core.DisplayMajorUnits(ledger.TotalMinorUnits),
		LatestPayment:   ledger.LatestPayment,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status <= 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
