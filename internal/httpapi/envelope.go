package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/easelab/easel/pkg/domain"
)

// envelope is the uniform response shell of the wire protocol.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Status: "success", Data: data}); err != nil {
		s.log.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Status: "error", Code: code, Message: message}); err != nil {
		s.log.Error("response encode failed", "err", err)
	}
}

// writeErr maps a gateway failure onto the wire taxonomy.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	var re *domain.RemoteError
	if errors.As(err, &re) {
		status := re.Status
		if status == 0 {
			// The backing service never answered.
			status = http.StatusBadGateway
		}
		code := re.Code
		if code == "" {
			code = codeFor(status)
		}
		s.writeError(w, status, code, re.Message)
		return
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		s.writeError(w, http.StatusBadRequest, domain.CodeValidationError, ve.Error())
		return
	}
	s.log.Error("request failed", "err", err)
	s.writeError(w, http.StatusInternalServerError, domain.CodeInternalError, err.Error())
}

func codeFor(status int) string {
	switch {
	case status == http.StatusNotFound:
		return domain.CodeNotFound
	case status == http.StatusBadRequest:
		return domain.CodeValidationError
	case status > http.StatusInternalServerError:
		return domain.CodeProviderError
	default:
		return domain.CodeInternalError
	}
}
