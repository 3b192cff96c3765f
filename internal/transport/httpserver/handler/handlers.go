package handler

import (
	"net/http"

	"care-companion-go/internal/cache"
	recordsdomain "care-companion-go/internal/domain/records"
	scheduledomain "care-companion-go/internal/domain/schedule"
	"care-companion-go/pkg/logger"
)

type Handlers struct {
	Records   *recordsdomain.Service
	Schedules *scheduledomain.Service
	Cache     *cache.Manager

	log logger.Logger
}

func New(records *recordsdomain.Service, schedules *scheduledomain.Service, cacheManager *cache.Manager, log logger.Logger) *Handlers {
	return &Handlers{
		Records:   records,
		Schedules: schedules,
		Cache:     cacheManager,
		log:       log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
