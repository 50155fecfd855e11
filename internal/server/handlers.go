package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"slackistrano/internal/logging"
	"slackistrano/internal/messaging"
)

// EventRequest optionally overrides the configured deploy context.
type EventRequest struct {
	Application string `json:"application,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Branch      string `json:"branch,omitempty"`
	Deployer    string `json:"deployer,omitempty"`
	Rollback    *bool  `json:"rollback,omitempty"`
}

// EventResponse acknowledges an event.
type EventResponse struct {
	Event  string `json:"event"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	event := messaging.ParseEvent(chi.URLParam(r, "event"))
	if event == "" {
		writeError(w, http.StatusBadRequest, "event name is required")
		return
	}

	req, err := decodeEventRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deploy := s.cfg.DeployContext()
	req.apply(deploy)
	s.markTimes(deploy, event)

	ctx := r.Context()
	logger := logging.WithContext(ctx, s.logger)
	dispatcher, err := s.dispatcherFor(deploy, logger)
	if err != nil {
		logger.Error("build messaging provider", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "messaging provider unavailable")
		return
	}

	deliveries := len(dispatcher.Channels(event))
	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(writeBudget(s.cfg.RequestTimeout(), deliveries))); err != nil {
		logger.Debug("extend write deadline", logging.Error(err))
	}

	logger.Debug("processing event", logging.String(logging.FieldEvent, event.String()), logging.Int("deliveries", deliveries))
	dispatcher.Process(ctx, event)
	writeJSON(w, http.StatusAccepted, EventResponse{Event: event.String(), Status: "accepted"})
}

// writeBudget is how long a response may take when every channel is posted
// in turn and each post can use the full request timeout.
func writeBudget(timeout time.Duration, deliveries int) time.Duration {
	if deliveries < 1 {
		deliveries = 1
	}
	return timeout*time.Duration(deliveries) + writeGrace
}

// markTimes gives remote events the same timing data the local hooks record.
// Each request stands alone, so a finish event measures nothing.
func (s *Server) markTimes(deploy *messaging.DeployContext, event messaging.Event) {
	now := s.now()
	switch event {
	case messaging.EventUpdating, messaging.EventReverting:
		deploy.MarkStarted(now)
	case messaging.EventUpdated, messaging.EventReverted, messaging.EventFailed:
		deploy.MarkStarted(now)
		deploy.MarkFinished(now)
	}
}

func decodeEventRequest(r *http.Request) (EventRequest, error) {
	var req EventRequest
	if r.Body == nil {
		return req, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return EventRequest{}, nil
		}
		return EventRequest{}, errors.New("invalid request body: " + err.Error())
	}
	return req, nil
}

func (req EventRequest) apply(deploy *messaging.DeployContext) {
	if v := strings.TrimSpace(req.Application); v != "" {
		deploy.Application = v
	}
	if v := strings.TrimSpace(req.Stage); v != "" {
		deploy.Stage = v
	}
	if v := strings.TrimSpace(req.Branch); v != "" {
		deploy.Branch = v
	}
	if v := strings.TrimSpace(req.Deployer); v != "" {
		deploy.Deployer = v
	}
	if req.Rollback != nil {
		deploy.Rollback = *req.Rollback
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
