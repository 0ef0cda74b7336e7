package handlers

import (
	"fmt"
	"net/http"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/services"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/transport"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

type RsvpHandler struct {
	RsvpService internal_types.RsvpServiceInterface
	Broadcaster *services.LiveCountBroadcaster
}

func NewRsvpHandler(rsvpService internal_types.RsvpServiceInterface, broadcaster *services.LiveCountBroadcaster) *RsvpHandler {
	return &RsvpHandler{RsvpService: rsvpService, Broadcaster: broadcaster}
}

func (h *RsvpHandler) GetRsvp(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	db := transport.GetDB()
	view, err := h.RsvpService.GetRsvpView(r.Context(), db, userInfo.Sub)
	if err != nil {
		if err == services.ErrNotFound {
			transport.SendErrorRes(w, "No registration found for this account", http.StatusNotFound, err)
			return
		}
		sendServiceError(w, "Failed to get RSVP status", err)
		return
	}

	transport.SendServerRes(w, view, http.StatusOK)
}

func (h *RsvpHandler) ConfirmAttendance(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	db := transport.GetDB()
	view, err := h.RsvpService.ConfirmAttendance(r.Context(), db, userInfo.Sub)
	if err != nil {
		switch err {
		case services.ErrEventFull:
			transport.SendErrorRes(w, "The event is full, you've been added to the waitlist", http.StatusConflict, err)
		case services.ErrRsvpClosed:
			transport.SendErrorRes(w, "Your RSVP can no longer be changed", http.StatusConflict, err)
		case services.ErrNotFound:
			transport.SendErrorRes(w, "No registration found for this account", http.StatusNotFound, err)
		default:
			sendServiceError(w, "Failed to confirm attendance", err)
		}
		return
	}

	transport.SendServerRes(w, view, http.StatusOK)
}

func (h *RsvpHandler) DeclineAttendance(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	db := transport.GetDB()
	view, err := h.RsvpService.DeclineAttendance(r.Context(), db, userInfo.Sub)
	if err != nil {
		switch err {
		case services.ErrRsvpClosed:
			transport.SendErrorRes(w, "Your RSVP can no longer be changed", http.StatusConflict, err)
		case services.ErrNotFound:
			transport.SendErrorRes(w, "No registration found for this account", http.StatusNotFound, err)
		default:
			sendServiceError(w, "Failed to decline attendance", err)
		}
		return
	}

	transport.SendServerRes(w, view, http.StatusOK)
}

// GetLiveCount streams the confirmed count as server-sent events. Every open
// stream shares one upstream subscription; the first subscriber triggers a
// point read so clients never wait for the next change to paint a number.
func (h *RsvpHandler) GetLiveCount(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		transport.SendErrorRes(w, "Streaming is not supported", http.StatusInternalServerError, nil)
		return
	}

	initial, counts, cancel, err := h.Broadcaster.Subscribe()
	if err != nil {
		sendServiceError(w, "Failed to subscribe to live count", err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "data: {\"count\":%d}\n\n", initial)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case count, open := <-counts:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: {\"count\":%d}\n\n", count)
			flusher.Flush()
		}
	}
}

func GetRsvpHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewRsvpHandler(services.NewRsvpService(), services.DefaultRsvpBroadcaster())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetRsvp(w, r)
	}
}

func ConfirmAttendanceHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewRsvpHandler(services.NewRsvpService(), services.DefaultRsvpBroadcaster())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ConfirmAttendance(w, r)
	}
}

func DeclineAttendanceHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewRsvpHandler(services.NewRsvpService(), services.DefaultRsvpBroadcaster())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.DeclineAttendance(w, r)
	}
}

func GetLiveCountHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewRsvpHandler(services.NewRsvpService(), services.DefaultRsvpBroadcaster())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetLiveCount(w, r)
	}
}
