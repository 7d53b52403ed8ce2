// Package station exposes the charging stations over HTTP.
package station

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/logger"
	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/core/monitoring"
	corestation "github.com/kilianp07/chargestation/core/station"
)

// Handler serves the station API for every station of a network.
type Handler struct {
	network *corestation.Network
	store   journal.LogStore
	token   string
	logger  logger.Logger
}

// NewHandler returns a handler backed by network. A nil store disables the
// journal endpoint. Requests must carry "Authorization: Bearer <token>" when
// token is non-empty.
func NewHandler(network *corestation.Network, store journal.LogStore, token string, log logger.Logger) *Handler {
	if store == nil {
		store = journal.NopStore{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{network: network, store: store, token: token, logger: log}
}

// Router registers every route on a new gorilla/mux router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.recoverPanic, h.authenticate)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stations/{sid}/docks", h.docks).Methods(http.MethodGet)
	api.HandleFunc("/stations/{sid}/users", h.registerUser).Methods(http.MethodPost)
	api.HandleFunc("/stations/{sid}/vehicles", h.registerVehicle).Methods(http.MethodPost)
	api.HandleFunc("/stations/{sid}/vehicles/{vid}/discharge", h.discharge).Methods(http.MethodPost)
	api.HandleFunc("/stations/{sid}/bookings", h.book).Methods(http.MethodPost)
	api.HandleFunc("/stations/{sid}/bookings", h.bookings).Methods(http.MethodGet)
	api.HandleFunc("/stations/{sid}/bookings/{bid}/cancel", h.cancel).Methods(http.MethodPost)
	api.HandleFunc("/stations/{sid}/bookings/{bid}/complete", h.complete).Methods(http.MethodPost)
	api.HandleFunc("/stations/{sid}/queue/drain", h.drain).Methods(http.MethodPost)
	api.HandleFunc("/stations/{sid}/report", h.report).Methods(http.MethodGet)
	api.HandleFunc("/stations/{sid}/sessions", h.sessions).Methods(http.MethodGet)
	api.HandleFunc("/weather", h.weather).Methods(http.MethodGet)
	api.HandleFunc("/weather", h.setWeather).Methods(http.MethodPut)
	api.HandleFunc("/journal", h.journal).Methods(http.MethodGet)
	return r
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				h.logger.Errorf("%s %s: panic: %v", r.Method, r.URL.Path, v)
				monitoring.CapturePanic(v, map[string]string{"method": r.Method, "path": r.URL.Path})
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// StatusCode maps a station error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, corestation.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, corestation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, corestation.ErrNoAvailableDock):
		return http.StatusConflict
	case errors.Is(err, corestation.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		h.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		monitoring.CaptureError(err, map[string]string{"method": r.Method, "path": r.URL.Path})
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Reason: corestation.RejectionReason(err)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", corestation.ErrInvalidInput, err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", corestation.ErrInvalidInput, name)
	}
	return v, nil
}

func (h *Handler) station(r *http.Request) (*corestation.Station, error) {
	sid, err := pathInt(r, "sid")
	if err != nil {
		return nil, err
	}
	return h.network.Station(sid)
}

func (h *Handler) docks(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Docks())
}

type userRequest struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Membership int    `json:"membership"`
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req userRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := st.RegisterUser(req.ID, req.Name, req.Membership)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type vehicleRequest struct {
	ID          int     `json:"id"`
	Owner       int     `json:"owner"`
	SoC         float64 `json:"soc"`
	CapacityKWh float64 `json:"capacity_kwh"`
	V2G         bool    `json:"v2g"`
}

func (h *Handler) registerVehicle(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req vehicleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := st.RegisterVehicle(req.ID, req.Owner, req.SoC, req.CapacityKWh, req.V2G)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

type bookingRequest struct {
	UserID           int     `json:"user_id"`
	VehicleID        int     `json:"vehicle_id"`
	Start            float64 `json:"start"`
	Duration         float64 `json:"duration"`
	ChargingType     int     `json:"charging_type"`
	EnqueueOnFailure bool    `json:"enqueue_on_failure"`
}

// QueuedResponse is returned when a rejected request was placed in the queue.
type QueuedResponse struct {
	Queued bool   `json:"queued"`
	Depth  int    `json:"depth"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req bookingRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	dr := model.NewRequest(req.UserID, req.VehicleID, req.Start, req.Duration, model.ChargingType(req.ChargingType))
	adm, err := st.TryBook(dr)
	if err != nil {
		if !req.EnqueueOnFailure {
			h.fail(w, r, err)
			return
		}
		depth := st.Enqueue(dr)
		writeJSON(w, http.StatusAccepted, QueuedResponse{Queued: true, Depth: depth, Reason: corestation.RejectionReason(err), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, adm)
}

func (h *Handler) bookings(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var res []model.Booking
	if s := r.URL.Query().Get("user_id"); s != "" {
		uid, err := strconv.Atoi(s)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: user_id must be an integer", corestation.ErrInvalidInput))
			return
		}
		res = st.UserBookings(uid)
	} else {
		res = st.Bookings()
	}
	if res == nil {
		res = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, res)
}

// CancelResponse reports the penalty charged for a cancellation.
type CancelResponse struct {
	BookingID int    `json:"booking_id"`
	Penalty   string `json:"penalty"`
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bid, err := pathInt(r, "bid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	penalty, err := st.Cancel(bid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CancelResponse{BookingID: bid, Penalty: penalty.StringFixed(2)})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bid, err := pathInt(r, "bid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	inv, err := st.Complete(bid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// DrainResponse mirrors a queue drain, with the stopping error as text.
type DrainResponse struct {
	Admitted  []corestation.Admission `json:"admitted"`
	Remaining int                     `json:"remaining"`
	Reason    string                  `json:"reason,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

func (h *Handler) drain(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res := st.Drain()
	out := DrainResponse{Admitted: res.Admitted, Remaining: res.Remaining}
	if out.Admitted == nil {
		out.Admitted = []corestation.Admission{}
	}
	if res.Err != nil {
		out.Reason = corestation.RejectionReason(res.Err)
		out.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Report())
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res := st.LiveSessions()
	if res == nil {
		res = []corestation.Session{}
	}
	writeJSON(w, http.StatusOK, res)
}

// DischargeResponse reports the energy actually returned to the grid.
type DischargeResponse struct {
	VehicleID int     `json:"vehicle_id"`
	EnergyKWh float64 `json:"energy_kwh"`
}

func (h *Handler) discharge(w http.ResponseWriter, r *http.Request) {
	st, err := h.station(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	vid, err := pathInt(r, "vid")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		EnergyKWh float64 `json:"energy_kwh"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	got, err := st.DischargeToGrid(vid, req.EnergyKWh)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DischargeResponse{VehicleID: vid, EnergyKWh: got})
}

// WeatherBody carries the weather as a name or numeric code.
type WeatherBody struct {
	Weather json.RawMessage `json:"weather"`
}

func (h *Handler) weather(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"weather": h.network.Weather().String()})
}

func (h *Handler) setWeather(w http.ResponseWriter, r *http.Request) {
	var body WeatherBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	raw := string(body.Weather)
	var name string
	if err := json.Unmarshal(body.Weather, &name); err == nil {
		raw = name
	}
	wx, err := model.ParseWeather(raw)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", corestation.ErrInvalidInput, err))
		return
	}
	if err := h.network.SetWeather(wx); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"weather": wx.String()})
}

func (h *Handler) journal(w http.ResponseWriter, r *http.Request) {
	q := journal.LogQuery{Kind: journal.Kind(r.URL.Query().Get("kind"))}
	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := r.URL.Query().Get("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	for name, dst := range map[string]*int{"station_id": &q.StationID, "user_id": &q.UserID} {
		if s := r.URL.Query().Get(name); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				h.fail(w, r, fmt.Errorf("%w: %s must be an integer", corestation.ErrInvalidInput, name))
				return
			}
			*dst = v
		}
	}
	records, err := h.store.Query(r.Context(), q)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
