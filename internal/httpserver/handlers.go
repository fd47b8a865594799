package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"dingtalk/internal/config"
	"dingtalk/internal/robot"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// robotName returns the path segment after prefix, e.g. "ops" for /send/ops.
func robotName(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

// POST /send, POST /send/{robot}
func (s *HTTPServer) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if name := robotName(r.URL.Path, "/send"); name != "" {
		req.Robot = name
	}

	m, err := req.Message()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, from, ok := s.client(w, req.Robot)
	if !ok {
		return
	}
	start := time.Now()
	err = client.Send(r.Context(), m)
	s.finish(w, from, string(m.Kind()), start, err)
}

// POST /raw/{robot} forwards the body untouched.
func (s *HTTPServer) handleRaw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if !json.Valid(body) {
		respondError(w, http.StatusBadRequest, "body is not valid JSON")
		return
	}

	client, from, ok := s.client(w, robotName(r.URL.Path, "/raw"))
	if !ok {
		return
	}
	start := time.Now()
	err = client.SendJSON(r.Context(), body)
	s.finish(w, from, "raw", start, err)
}

// client resolves a robot or writes the error response.
func (s *HTTPServer) client(w http.ResponseWriter, name string) (*robot.Client, string, bool) {
	client, from, err := s.resolve(name)
	switch {
	case err == nil:
		return client, from, true
	case errors.Is(err, config.ErrNotFound), errors.Is(err, config.ErrNoRobot):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
	return nil, "", false
}

// finish publishes the delivery event and writes the response. Provider
// rejections map to 502 and transport failures to 504.
func (s *HTTPServer) finish(w http.ResponseWriter, from, msgType string, start time.Time, err error) {
	ev := DeliveryEvent{
		Robot:     from,
		MsgType:   msgType,
		Result:    robot.Result(err),
		ElapsedMS: time.Since(start).Milliseconds(),
		Time:      time.Now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.events.publish(ev)

	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, SendResponse{Robot: from, MsgType: msgType})
	case errors.Is(err, robot.ErrDelivery):
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, robot.ErrTransport):
		respondError(w, http.StatusGatewayTimeout, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// GET /robots
func (s *HTTPServer) handleRobots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cfg, err := s.robots()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load robots: "+err.Error())
		return
	}

	resp := RobotListResponse{Robots: make([]RobotSummary, 0, len(cfg.Robots))}
	for _, p := range cfg.Robots {
		c := p.Config()
		resp.Robots = append(resp.Robots, RobotSummary{
			Name:     p.Name,
			Provider: c.Provider.String(),
			Signed:   c.SecToken != "",
			Default:  p.Name == cfg.Default,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}
