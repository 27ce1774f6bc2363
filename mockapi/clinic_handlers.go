package mockapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/beautyclinic/clinic-web/api"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
	"github.com/beautyclinic/clinic-web/internal/utils"
)

func (s *Server) listPatients(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.patients)
}

func (s *Server) createPatient(w http.ResponseWriter, r *http.Request) {
	var in api.NewPatient
	if err := decodeBody(r, &in); err != nil || strings.TrimSpace(in.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "name is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := api.PatientRecord{
		ID:        s.data.newID(),
		Name:      in.Name,
		Phone:     in.Phone,
		CreatedAt: s.now().Format("2006-01-02"),
	}
	s.data.patients = append([]api.PatientRecord{p}, s.data.patients...)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listAppointments(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.appointments)
}

func (s *Server) createAppointment(w http.ResponseWriter, r *http.Request) {
	var in api.NewAppointment
	if err := decodeBody(r, &in); err != nil || in.Patient == "" || in.Date == "" || in.Time == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "patient, date and time are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.conflicts(in.Date, in.Time) {
		writeMessage(w, http.StatusConflict, "TIME_CONFLICT: the selected slot is already booked")
		return
	}
	a := api.AppointmentRecord{
		ID:      s.data.newID(),
		Patient: in.Patient,
		Service: in.Service,
		Date:    in.Date,
		Time:    in.Time,
		Status:  api.StatusScheduled,
	}
	s.data.appointments = append(s.data.appointments, a)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) updateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Status api.AppointmentStatus `json:"status"`
	}
	if err := decodeBody(r, &in); err != nil || !validStatus(in.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid status"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.appointments {
		if s.data.appointments[i].ID == id {
			s.data.appointments[i].Status = in.Status
			writeJSON(w, http.StatusOK, s.data.appointments[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, clinicerrors.Wrapf(clinicerrors.ErrNotFound, "appointment %d", id))
}

func validStatus(s api.AppointmentStatus) bool {
	switch s {
	case api.StatusScheduled, api.StatusCompleted, api.StatusCanceled:
		return true
	}
	return false
}

func (s *Server) getClinic(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.clinic)
}

func (s *Server) updateClinic(w http.ResponseWriter, r *http.Request) {
	var in api.ClinicSettingsInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, clinicerrors.Wrapf(clinicerrors.ErrInvalidRequest, "clinic settings"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Name != nil {
		s.data.clinic.Name = *in.Name
	}
	if in.Address != nil {
		s.data.clinic.Address = *in.Address
	}
	if in.Timezone != nil {
		s.data.clinic.Timezone = *in.Timezone
	}
	writeJSON(w, http.StatusOK, s.data.clinic)
}

func (s *Server) listStaff(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.staff)
}

func (s *Server) toggleStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Active *bool `json:"active"`
	}
	if err := decodeBody(r, &in); err != nil || in.Active == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "active is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.staff {
		if s.data.staff[i].ID == id {
			s.data.staff[i].Active = utils.Value(in.Active)
			writeJSON(w, http.StatusOK, s.data.staff[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, clinicerrors.Wrapf(clinicerrors.ErrNotFound, "staff member %d", id))
}

func (s *Server) billingStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.billing)
}

func (s *Server) billingCheckout(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.billing.LastCheckoutURL = CheckoutURL
	writeJSON(w, http.StatusOK, api.Checkout{CheckoutURL: CheckoutURL})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, clinicerrors.Wrapf(clinicerrors.ErrInvalidRequest, "id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}
