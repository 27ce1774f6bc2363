package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/guard"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
	"github.com/beautyclinic/clinic-web/internal/utils"
	"github.com/beautyclinic/clinic-web/session"
	"github.com/beautyclinic/clinic-web/workspace"
)

// workspaceFor returns the data layer for a guarded request.
func (s *Server) workspaceFor(r *http.Request) *workspace.Workspace {
	return workspace.New(s.api, session.FromContext(r.Context()))
}

// renderApp renders a guarded page with the bootstrap the guard resolved.
func (s *Server) renderApp(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, errMsg string) {
	boot := guard.BootstrapFromContext(r.Context())
	page := s.page(title, &boot, data)
	page.Error = errMsg
	s.pages.render(w, status, name, page)
}

func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderApp(w, r, http.StatusOK, "app.html", "Dashboard", nil, "")
	}
}

func (s *Server) PatientsPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.patientsPage(w, r, s.workspaceFor(r), http.StatusOK, "")
	}
}

func (s *Server) patientsPage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, status int, errMsg string) {
	patients, err := ws.Patients(r.Context())
	if err != nil {
		s.renderApp(w, r, http.StatusBadGateway, "patients.html", "Patients", nil, workspace.ErrorMessage(err, ""))
		return
	}
	s.renderApp(w, r, status, "patients.html", "Patients", patients, errMsg)
}

func (s *Server) CreatePatientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := s.workspaceFor(r)
		if err := r.ParseForm(); err != nil {
			s.patientsPage(w, r, ws, http.StatusBadRequest, "Invalid form data")
			return
		}
		in := api.NewPatient{
			Name:  strings.TrimSpace(r.PostFormValue("name")),
			Phone: strings.TrimSpace(r.PostFormValue("phone")),
		}
		if in.Name == "" {
			s.patientsPage(w, r, ws, http.StatusBadRequest, "Patient name is required")
			return
		}
		if _, err := ws.CreatePatient(r.Context(), in); err != nil {
			log.Info().Err(err).Msg("Create patient failed")
			s.patientsPage(w, r, ws, mutationStatus(err), workspace.ErrorMessage(err, workspace.ResourcePatient))
			return
		}
		http.Redirect(w, r, RouteAppPatients, http.StatusSeeOther)
	}
}

func (s *Server) AppointmentsPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.appointmentsPage(w, r, s.workspaceFor(r), http.StatusOK, "")
	}
}

func (s *Server) appointmentsPage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, status int, errMsg string) {
	appointments, err := ws.Appointments(r.Context())
	if err != nil {
		s.renderApp(w, r, http.StatusBadGateway, "appointments.html", "Appointments", nil, workspace.ErrorMessage(err, ""))
		return
	}
	s.renderApp(w, r, status, "appointments.html", "Appointments", appointments, errMsg)
}

func (s *Server) CreateAppointmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := s.workspaceFor(r)
		if err := r.ParseForm(); err != nil {
			s.appointmentsPage(w, r, ws, http.StatusBadRequest, "Invalid form data")
			return
		}
		in := api.NewAppointment{
			Patient: strings.TrimSpace(r.PostFormValue("patient")),
			Service: strings.TrimSpace(r.PostFormValue("service")),
			Date:    strings.TrimSpace(r.PostFormValue("date")),
			Time:    strings.TrimSpace(r.PostFormValue("time")),
		}
		if in.Patient == "" || in.Date == "" || in.Time == "" {
			s.appointmentsPage(w, r, ws, http.StatusBadRequest, "Patient, date and time are required")
			return
		}
		if _, err := ws.CreateAppointment(r.Context(), in); err != nil {
			log.Info().Err(err).Msg("Create appointment failed")
			s.appointmentsPage(w, r, ws, mutationStatus(err), workspace.ErrorMessage(err, workspace.ResourceAppointment))
			return
		}
		http.Redirect(w, r, RouteAppAppointments, http.StatusSeeOther)
	}
}

func (s *Server) AppointmentStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := s.workspaceFor(r)
		id, ok := urlID(r)
		if !ok {
			s.appointmentsPage(w, r, ws, http.StatusBadRequest, "Invalid appointment id")
			return
		}
		status := api.AppointmentStatus(r.PostFormValue("status"))
		if _, err := ws.UpdateAppointmentStatus(r.Context(), id, status); err != nil {
			s.appointmentsPage(w, r, ws, mutationStatus(err), workspace.ErrorMessage(err, ""))
			return
		}
		http.Redirect(w, r, RouteAppAppointments, http.StatusSeeOther)
	}
}

func (s *Server) ClinicPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clinicPage(w, r, s.workspaceFor(r), http.StatusOK, "")
	}
}

func (s *Server) clinicPage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, status int, errMsg string) {
	clinic, err := ws.Clinic(r.Context())
	if err != nil {
		s.renderApp(w, r, http.StatusBadGateway, "clinic.html", "Clinic settings", nil, workspace.ErrorMessage(err, ""))
		return
	}
	s.renderApp(w, r, status, "clinic.html", "Clinic settings", clinic, errMsg)
}

func (s *Server) UpdateClinicHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := s.workspaceFor(r)
		if err := r.ParseForm(); err != nil {
			s.clinicPage(w, r, ws, http.StatusBadRequest, "Invalid form data")
			return
		}
		var in api.ClinicSettingsInput
		for field, dst := range map[string]**string{"name": &in.Name, "address": &in.Address, "timezone": &in.Timezone} {
			if _, present := r.PostForm[field]; present {
				*dst = utils.Ptr(strings.TrimSpace(r.PostFormValue(field)))
			}
		}
		if in.Name != nil && *in.Name == "" {
			s.clinicPage(w, r, ws, http.StatusBadRequest, "Clinic name is required")
			return
		}
		if _, err := ws.UpdateClinic(r.Context(), in); err != nil {
			s.clinicPage(w, r, ws, mutationStatus(err), workspace.ErrorMessage(err, ""))
			return
		}
		http.Redirect(w, r, RouteAppClinic, http.StatusSeeOther)
	}
}

func (s *Server) StaffPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.staffPage(w, r, s.workspaceFor(r), http.StatusOK, "")
	}
}

func (s *Server) staffPage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, status int, errMsg string) {
	staff, err := ws.Staff(r.Context())
	if err != nil {
		s.renderApp(w, r, http.StatusBadGateway, "staff.html", "Staff", nil, workspace.ErrorMessage(err, ""))
		return
	}
	s.renderApp(w, r, status, "staff.html", "Staff", staff, errMsg)
}

func (s *Server) ToggleStaffHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := s.workspaceFor(r)
		id, ok := urlID(r)
		if !ok {
			s.staffPage(w, r, ws, http.StatusBadRequest, "Invalid staff id")
			return
		}
		active, err := strconv.ParseBool(r.PostFormValue("active"))
		if err != nil {
			s.staffPage(w, r, ws, http.StatusBadRequest, "Invalid active flag")
			return
		}
		if _, err := ws.SetStaffActive(r.Context(), id, active); err != nil {
			s.staffPage(w, r, ws, mutationStatus(err), workspace.ErrorMessage(err, ""))
			return
		}
		http.Redirect(w, r, RouteAppStaff, http.StatusSeeOther)
	}
}

func (s *Server) BillingPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.billingPage(w, r, s.workspaceFor(r), http.StatusOK, "")
	}
}

func (s *Server) billingPage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, status int, errMsg string) {
	billing, err := ws.BillingStatus(r.Context())
	if err != nil {
		s.renderApp(w, r, http.StatusBadGateway, "billing.html", "Billing", nil, workspace.ErrorMessage(err, ""))
		return
	}
	s.renderApp(w, r, status, "billing.html", "Billing", billing, errMsg)
}

// CheckoutHandler sends the browser to the payment gateway.
func (s *Server) CheckoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := s.workspaceFor(r)
		checkout, err := ws.Checkout(r.Context())
		if err != nil {
			s.billingPage(w, r, ws, mutationStatus(err), workspace.ErrorMessage(err, ""))
			return
		}
		if checkout.CheckoutURL == "" {
			http.Redirect(w, r, RouteAppBilling, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, checkout.CheckoutURL, http.StatusSeeOther)
	}
}

func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// mutationStatus is the status of a page re-rendered after a failed write.
func mutationStatus(err error) int {
	switch {
	case api.IsTransport(err):
		return http.StatusBadGateway
	case clinicerrors.Is(err, clinicerrors.ErrNotFound):
		return http.StatusNotFound
	case clinicerrors.Is(err, clinicerrors.ErrInvalidRequest):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
