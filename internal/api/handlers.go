package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"codeberg.org/mutker/deviceapi/internal/errors"
	"codeberg.org/mutker/deviceapi/internal/provider"
	"codeberg.org/mutker/deviceapi/internal/registry"
)

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type platformResponse struct {
	Platform       string   `json:"platform"`
	ServiceManager string   `json:"service_manager"`
	Capabilities   []string `json:"capabilities"`
}

func (s *Server) handlePlatform(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	p := s.registry.Platform()
	contracts := s.registry.Contracts()
	capabilities := make([]string, 0, len(contracts))
	for _, c := range contracts {
		capabilities = append(capabilities, c.String())
	}

	s.writeJSON(w, http.StatusOK, platformResponse{
		Platform:       string(p),
		ServiceManager: p.ServiceManager(),
		Capabilities:   capabilities,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	metrics, err := s.service.Collect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleHealthSummary(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	summary, err := s.service.CollectSummary(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	cameras, err := registry.Resolve[provider.CameraProvider](s.registry, registry.ContractCamera)
	if err != nil {
		s.writeError(w, err)
		return
	}

	list, err := cameras.ListCameras(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []provider.Camera{}
	}

	s.writeJSON(w, http.StatusOK, map[string][]provider.Camera{"cameras": list})
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	screenshot, err := registry.Resolve[provider.ScreenshotProvider](s.registry, registry.ContractScreenshot)
	if err != nil {
		s.writeError(w, err)
		return
	}

	image, mime, err := screenshot.Capture(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(image); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write screenshot response")
	}
}

func (s *Server) handlePlayerStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	player, err := registry.Resolve[provider.PlayerProvider](s.registry, registry.ContractPlayer)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status, err := player.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handlePlayerRestart(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	player, err := registry.Resolve[provider.PlayerProvider](s.registry, registry.ContractPlayer)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := player.Restart(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "restarting"})
}

type restartRequest struct {
	Service string `json:"service"`
}

func (s *Server) handleActionRestart(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req restartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Service == "" {
		s.writeError(w, errors.New().WithData(errors.ErrInvalidArgument, "request body must name a service"))
		return
	}

	actions, err := registry.Resolve[provider.ActionProvider](s.registry, registry.ContractAction)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := actions.RestartService(r.Context(), req.Service); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "restarting",
		"service": req.Service,
	})
}

func (s *Server) handleActionReboot(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	actions, err := registry.Resolve[provider.ActionProvider](s.registry, registry.ContractAction)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := actions.Reboot(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "rebooting"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
			s.writeError(w, errors.New().WithData(errors.ErrInvalidArgument, "limit must be between 1 and 1000"))
			return
		}
		limit = parsed
	}

	snapshots, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}
