package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/johncui/vega/pkg/config"
	"github.com/johncui/vega/pkg/model"
)

type utteranceRequest struct {
	Text string `json:"text"`
}

type modelsRequest struct {
	TextModel   string `json:"text_model"`
	VisionModel string `json:"vision_model"`
}

type factRequest struct {
	Text string `json:"text"`
}

type statusResponse struct {
	Text  string       `json:"text"`
	State model.Status `json:"state"`
}

// api serves the HTTP control surface.
type api struct {
	a *assistant

	mu       sync.Mutex
	settings *config.Settings
	// persist saves settings after a model switch; nil disables it.
	persist func(config.Settings) error
}

func newRouter(a *assistant, s *config.Settings) http.Handler {
	h := &api{
		a:        a,
		settings: s,
		persist:  func(s config.Settings) error { return s.Save(settingsPath) },
	}
	return h.routes()
}

func (h *api) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Post("/utterance", h.utterance)
	r.Get("/state", h.state)
	r.Post("/sleep", h.toggleSleep)
	r.Get("/models", h.models)
	r.Post("/models", h.setModels)
	r.Get("/facts", h.facts)
	r.Post("/facts", h.remember)
	r.Delete("/facts/{id}", h.forget)
	return r
}

func (h *api) utterance(w http.ResponseWriter, req *http.Request) {
	var in utteranceRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, h.a.engine.Handle(req.Context(), in.Text))
}

func (h *api) state(w http.ResponseWriter, _ *http.Request) {
	text, status := h.a.status.Last()
	writeJSON(w, struct {
		Engine any            `json:"engine"`
		Status statusResponse `json:"status"`
	}{h.a.engine.State(), statusResponse{text, status}})
}

func (h *api) toggleSleep(w http.ResponseWriter, req *http.Request) {
	state := h.a.engine.ToggleSleep(req.Context())
	writeJSON(w, map[string]string{"wake": state.String()})
}

func (h *api) models(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, modelsRequest{TextModel: h.a.engine.TextModel(), VisionModel: h.a.engine.VisionModel()})
}

func (h *api) setModels(w http.ResponseWriter, req *http.Request) {
	var in modelsRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.a.engine.SetModels(in.TextModel, in.VisionModel)

	h.mu.Lock()
	h.settings.TextModel = h.a.engine.TextModel()
	h.settings.VisionModel = h.a.engine.VisionModel()
	snapshot := *h.settings
	h.mu.Unlock()
	if h.persist != nil {
		if err := h.persist(snapshot); err != nil {
			logger.Warn("settings not saved", "err", err)
		}
	}
	h.models(w, req)
}

func (h *api) facts(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query().Get("q")
	k := 0
	if v := req.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "k must be an integer", http.StatusBadRequest)
			return
		}
		k = n
	}
	if query != "" {
		writeJSON(w, orEmpty(h.a.facts.Recall(req.Context(), query, k)))
		return
	}
	if k <= 0 {
		k = 50
	}
	facts, err := h.a.facts.List(req.Context(), k)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, orEmpty(facts))
}

func (h *api) remember(w http.ResponseWriter, req *http.Request) {
	var in factRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.a.facts.Remember(req.Context(), in.Text)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, f)
}

func (h *api) forget(w http.ResponseWriter, req *http.Request) {
	ok, err := h.a.facts.Forget(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, req)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func orEmpty(facts []model.Fact) []model.Fact {
	if facts == nil {
		return []model.Fact{}
	}
	return facts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
