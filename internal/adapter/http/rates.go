package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/couchcryptid/port-rates-service/internal/lookup"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// rateResponse is one element of the /rates response array.
type rateResponse struct {
	Day          string `json:"day"`
	AveragePrice int64  `json:"average_price"`
}

type portsResponse struct {
	Region string   `json:"region"`
	Ports  []string `json:"ports"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateFrom, dateTo := q.Get("date_from"), q.Get("date_to")
	origin, destination := q.Get("origin"), q.Get("destination")

	if dateFrom == "" || dateTo == "" || origin == "" || destination == "" {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required parameters"})
		return
	}

	from, errFrom := domain.ParseDay(dateFrom)
	to, errTo := domain.ParseDay(dateTo)
	if errFrom != nil || errTo != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid date format"})
		return
	}

	originID, errOrigin := domain.ParseIdentifier(origin)
	destID, errDest := domain.ParseIdentifier(destination)
	if errOrigin != nil || errDest != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid origin or destination"})
		return
	}

	rates, err := s.svc.Rates(r.Context(), lookup.Request{
		Origin:      originID,
		Destination: destID,
		From:        from,
		To:          to,
	})
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	body := make([]rateResponse, len(rates))
	for i, rt := range rates {
		body[i] = rateResponse{Day: rt.Day.Format(domain.DayLayout), AveragePrice: rt.AveragePrice}
	}
	sharedobs.WriteJSON(w, http.StatusOK, body)
}

// handlePorts lists the ports under a region. The path segment is always a
// region slug, whatever its length.
func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	id := domain.RegionSlug(r.PathValue("slug"))

	ports, err := s.svc.Ports(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, portsResponse{Region: id.Value, Ports: ports.Codes()})
}

// writeLookupError maps lookup failures onto status codes. Details stay in
// the server log; clients get a fixed message.
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lookup.ErrCanceled):
		// The client is gone; the status is only seen by the access log.
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Request canceled"})
	case errors.Is(err, lookup.ErrDeadlineExceeded):
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Service unavailable"})
	case domain.IsResolution(err), domain.IsQuery(err), domain.IsHierarchyCycle(err):
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Database error"})
	default:
		s.logger.Error("unexpected lookup error", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}
