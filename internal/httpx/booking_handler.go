package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/dcastilla/go-booking-register.git/internal/booking"
)

// BookingHandler is the presentation layer over the store: it parses and
// validates input, calls the store, and maps typed errors to status codes.
// It never touches the underlying storage directly.
type BookingHandler struct {
	Store    *booking.Store
	Validate *validator.Validate
	Log      *logrus.Logger
}

type UnitReq struct {
	Name        string `json:"name" validate:"required"`
	Capacity    int    `json:"capacity" validate:"gte=1"`
	Description string `json:"description"`
}

type ReservationReq struct {
	UnitID    string       `json:"unitId" validate:"required"`
	GuestName string       `json:"guestName" validate:"required"`
	CheckIn   booking.Date `json:"checkIn" validate:"required"`
	CheckOut  booking.Date `json:"checkOut" validate:"required"`
}

func (h *BookingHandler) Register(r *chi.Mux) {
	r.Route("/units", func(r chi.Router) {
		r.Get("/", h.listUnits)
		r.Post("/", h.createUnit)
		r.Get("/{id}", h.getUnit)
		r.Put("/{id}", h.updateUnit)
		r.Delete("/{id}", h.deleteUnit)
		r.Get("/{id}/reservations", h.listUnitReservations)
		r.Get("/{id}/calendar", h.unitCalendar)
	})
	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", h.listReservations)
		r.Post("/", h.createReservation)
		r.Get("/{id}", h.getReservation)
		r.Put("/{id}", h.updateReservation)
		r.Delete("/{id}", h.deleteReservation)
	})
	r.Get("/availability", h.findAvailable)
	r.Get("/availability/detail", h.findAvailableDetail)
	r.Get("/export", h.exportAll)
	r.Post("/import", h.importAll)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validation  *booking.ValidationError
		notFound    *booking.NotFoundError
		conflict    *booking.ConflictError
		constraint  *booking.ConstraintError
		persistence *booking.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	case errors.As(err, &constraint):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	case errors.As(err, &persistence):
		h.Log.WithError(err).Error("provider failure")
		writeErrorMsg(w, http.StatusBadGateway, "storage unavailable, retry later")
	default:
		h.Log.WithError(err).Error("unhandled error")
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	if err := h.Validate.Struct(v); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// ---- units ----

func (h *BookingHandler) listUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Units())
}

func (h *BookingHandler) getUnit(w http.ResponseWriter, r *http.Request) {
	u, ok := h.Store.UnitByID(chi.URLParam(r, "id"))
	if !ok {
		writeErrorMsg(w, http.StatusNotFound, "unit not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *BookingHandler) createUnit(w http.ResponseWriter, r *http.Request) {
	var req UnitReq
	if !h.decode(w, r, &req) {
		return
	}
	u, err := h.Store.CreateUnit(r.Context(), booking.UnitInput{
		Name: req.Name, Capacity: req.Capacity, Description: req.Description,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *BookingHandler) updateUnit(w http.ResponseWriter, r *http.Request) {
	var req UnitReq
	if !h.decode(w, r, &req) {
		return
	}
	u, err := h.Store.UpdateUnit(r.Context(), chi.URLParam(r, "id"), booking.UnitInput{
		Name: req.Name, Capacity: req.Capacity, Description: req.Description,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *BookingHandler) deleteUnit(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteUnit(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) listUnitReservations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Store.UnitByID(id); !ok {
		writeErrorMsg(w, http.StatusNotFound, "unit not found")
		return
	}
	rs := h.Store.ReservationsForUnit(id)
	if rs == nil {
		rs = []booking.Reservation{}
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *BookingHandler) unitCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Store.UnitByID(id); !ok {
		writeErrorMsg(w, http.StatusNotFound, "unit not found")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeErrorMsg(w, http.StatusBadRequest, "month must be 1-12")
		return
	}
	writeJSON(w, http.StatusOK, h.Store.ReservedDatesForMonth(id, year, time.Month(month)))
}

// ---- reservations ----

func (h *BookingHandler) listReservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Reservations())
}

func (h *BookingHandler) getReservation(w http.ResponseWriter, r *http.Request) {
	res, ok := h.Store.ReservationByID(chi.URLParam(r, "id"))
	if !ok {
		writeErrorMsg(w, http.StatusNotFound, "reservation not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *BookingHandler) createReservation(w http.ResponseWriter, r *http.Request) {
	var req ReservationReq
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Store.CreateReservation(r.Context(), booking.ReservationInput{
		UnitID: req.UnitID, GuestName: req.GuestName, CheckIn: req.CheckIn, CheckOut: req.CheckOut,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *BookingHandler) updateReservation(w http.ResponseWriter, r *http.Request) {
	var req ReservationReq
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Store.UpdateReservation(r.Context(), chi.URLParam(r, "id"), booking.ReservationInput{
		UnitID: req.UnitID, GuestName: req.GuestName, CheckIn: req.CheckIn, CheckOut: req.CheckOut,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *BookingHandler) deleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteReservation(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- search ----

// parseCriteria rejects empty criteria and a lone check-in or check-out;
// the store itself would just ignore the incomplete date.
func parseCriteria(r *http.Request) (booking.SearchCriteria, string) {
	q := r.URL.Query()
	var c booking.SearchCriteria

	if s := q.Get("checkIn"); s != "" {
		d, err := booking.ParseDate(s)
		if err != nil {
			return c, "checkIn must be YYYY-MM-DD"
		}
		c.CheckIn = d
	}
	if s := q.Get("checkOut"); s != "" {
		d, err := booking.ParseDate(s)
		if err != nil {
			return c, "checkOut must be YYYY-MM-DD"
		}
		c.CheckOut = d
	}
	if s := q.Get("minCapacity"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c, "minCapacity must be a positive integer"
		}
		c.MinCapacity = n
	}

	if c.CheckIn.IsZero() != c.CheckOut.IsZero() {
		return c, "checkIn and checkOut must be given together"
	}
	if c.CheckIn.IsZero() && c.MinCapacity == 0 {
		return c, "at least one search criterion is required"
	}
	if !c.CheckIn.IsZero() && !c.CheckIn.Before(c.CheckOut.Time) {
		return c, "checkOut must be after checkIn"
	}
	return c, ""
}

func (h *BookingHandler) findAvailable(w http.ResponseWriter, r *http.Request) {
	criteria, msg := parseCriteria(r)
	if msg != "" {
		writeErrorMsg(w, http.StatusBadRequest, msg)
		return
	}
	units := h.Store.FindAvailableUnits(criteria)
	if units == nil {
		units = []booking.Unit{}
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *BookingHandler) findAvailableDetail(w http.ResponseWriter, r *http.Request) {
	criteria, msg := parseCriteria(r)
	if msg != "" {
		writeErrorMsg(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.FindUnitsWithAvailability(criteria))
}

// ---- backup ----

func (h *BookingHandler) exportAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.ExportAll())
}

func (h *BookingHandler) importAll(w http.ResponseWriter, r *http.Request) {
	var snap booking.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := h.Store.ImportAll(r.Context(), snap); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
