package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"cineseek/models"
	"cineseek/services/nav"
)

// Handler exposes the conversation engine over HTTP for non-chat clients.
// The same navigator serves the bot and this gateway; only the transport
// differs.
type Handler struct {
	nav *nav.Navigator

	// outbox buffers asynchronous deliveries (post-delay reveals) per user
	// until the client polls for them.
	mu     sync.Mutex
	outbox map[string][]models.Reply
}

func NewHandler(navigator *nav.Navigator) *Handler {
	return &Handler{
		nav:    navigator,
		outbox: make(map[string][]models.Reply),
	}
}

// RegisterRoutes mounts the gateway endpoints on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/start", h.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/search", h.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/identify", h.handleIdentify).Methods(http.MethodPost)
	api.HandleFunc("/action", h.handleAction).Methods(http.MethodPost)
	api.HandleFunc("/outbox", h.handleOutbox).Methods(http.MethodGet)
}

type startRequest struct {
	Name string `json:"name,omitempty"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type actionRequest struct {
	Token string `json:"token"`
}

type outboxResponse struct {
	Replies []models.Reply `json:"replies"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req startRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	writeJSON(w, http.StatusOK, h.nav.Start(userID, req.Name))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	reply, err := h.nav.HandleText(r.Context(), userID, req.Query)
	if err != nil {
		log.Printf("[gateway] search failed for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.nav.HandleAI(r.Context(), userID, req.Query)
	if err != nil {
		log.Printf("[gateway] identify failed for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "identify failed")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	push := func(reply models.Reply) {
		h.mu.Lock()
		h.outbox[userID] = append(h.outbox[userID], reply)
		h.mu.Unlock()
	}

	reply, err := h.nav.HandleToken(r.Context(), userID, req.Token, push)
	if err != nil {
		log.Printf("[gateway] action failed for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "action failed")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// handleOutbox drains the user's pending asynchronous replies.
func (h *Handler) handleOutbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	pending := h.outbox[userID]
	delete(h.outbox, userID)
	h.mu.Unlock()

	if pending == nil {
		pending = []models.Reply{}
	}
	writeJSON(w, http.StatusOK, outboxResponse{Replies: pending})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[gateway] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
