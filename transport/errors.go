package transport

import (
	"net/http"

	"github.com/goliatone/go-tally/core"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message  string         `json:"message"`
	TextCode string         `json:"text_code"`
	Code     int            `json:"code"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	mapped := core.MapError(err)
	status := http.StatusInternalServerError
	body := errorBody{
		Message:  "An unexpected error occurred",
		TextCode: core.TallyErrorInternal,
		Code:     status,
	}
	if mapped != nil {
		if mapped.Code > 0 {
			status = mapped.Code
		}
		body = errorBody{
			Message:  mapped.Message,
			TextCode: mapped.TextCode,
			Code:     status,
			Metadata: mapped.Metadata,
		}
	}
	writeJSON(w, status, errorEnvelope{Error: body})
}
