package handler

import (
	"net/http"
	"time"
)

type cacheStatusResponse struct {
	Entries  int      `json:"entries"`
	Capacity int      `json:"capacity"`
	TTL      string   `json:"ttl"`
	Keys     []string `json:"keys"`
}

func (h *Handlers) CacheStatus(w http.ResponseWriter, r *http.Request) {
	status := h.Cache.Status()
	writeJSON(w, http.StatusOK, cacheStatusResponse{
		Entries:  status.Entries,
		Capacity: status.Capacity,
		TTL:      status.TTL.Round(time.Second).String(),
		Keys:     status.Keys,
	})
}

func (h *Handlers) CacheClear(w http.ResponseWriter, r *http.Request) {
	h.Cache.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
