package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/companion"
	"github.com/beautyclinic/clinic-web/guard"
)

func (s *Server) initRoutes() {
	s.router.Use(s.RequestIDMiddleware, s.LoggingMiddleware, s.RecoverMiddleware)

	s.RegisterRoute(s.router, http.MethodGet, RouteHealth, s.HealthHandler())
	s.RegisterRoute(s.router, http.MethodGet, RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)

	// Same origin refresh token companion
	s.router.Group(func(r chi.Router) {
		r.Use(s.APIMiddleware()...)
		s.RegisterRoute(r, http.MethodGet, companion.Route, s.companion.Exists)
		s.RegisterRoute(r, http.MethodPost, companion.Route, s.companion.Save)
		s.RegisterRoute(r, http.MethodDelete, companion.Route, s.companion.Clear)
	})

	// LOGIN
	s.router.Group(func(r chi.Router) {
		r.Use(s.HTMLMiddleWare(s.NoStoreMiddleware)...)
		s.RegisterRoute(r, http.MethodGet, RouteIndex, s.IndexHandler())

		login := s.otpFlow(api.PurposeLogin, RouteLogin, RouteLoginRequestOTP, RouteLoginVerifyOTP)
		s.RegisterRoute(r, http.MethodGet, RouteLogin, login.PageHandler())
		s.RegisterRoute(r, http.MethodPost, RouteLoginRequestOTP, login.RequestHandler())
		s.RegisterRoute(r, http.MethodPost, RouteLoginVerifyOTP, login.VerifyHandler())

		recovery := s.otpFlow(api.PurposeRecovery, RouteRecovery, RouteRecoveryRequest, RouteRecoveryVerifyOTP)
		s.RegisterRoute(r, http.MethodGet, RouteRecovery, recovery.PageHandler())
		s.RegisterRoute(r, http.MethodPost, RouteRecoveryRequest, recovery.RequestHandler())
		s.RegisterRoute(r, http.MethodPost, RouteRecoveryVerifyOTP, recovery.VerifyHandler())

		s.RegisterRoute(r, http.MethodPost, RouteLogout, s.LogoutHandler())
	})

	// APP (guarded)
	s.router.Group(func(r chi.Router) {
		r.Use(s.HTMLMiddleWare(s.NoStoreMiddleware, s.guardMiddleware())...)
		s.RegisterRoute(r, http.MethodGet, RouteApp, s.DashboardHandler())
		s.RegisterRoute(r, http.MethodGet, RouteAppPatients, s.PatientsPageHandler())
		s.RegisterRoute(r, http.MethodPost, RouteAppPatients, s.CreatePatientHandler())
		s.RegisterRoute(r, http.MethodGet, RouteAppAppointments, s.AppointmentsPageHandler())
		s.RegisterRoute(r, http.MethodPost, RouteAppAppointments, s.CreateAppointmentHandler())
		s.RegisterRoute(r, http.MethodPost, RouteAppAppointmentStatus, s.AppointmentStatusHandler())
		s.RegisterRoute(r, http.MethodGet, RouteAppClinic, s.ClinicPageHandler())
		s.RegisterRoute(r, http.MethodPost, RouteAppClinic, s.UpdateClinicHandler())
		s.RegisterRoute(r, http.MethodGet, RouteAppStaff, s.StaffPageHandler())
		s.RegisterRoute(r, http.MethodPost, RouteAppStaffToggle, s.ToggleStaffHandler())
		s.RegisterRoute(r, http.MethodGet, RouteAppBilling, s.BillingPageHandler())
		s.RegisterRoute(r, http.MethodPost, RouteAppBillingCheckout, s.CheckoutHandler())
	})
}

func (s *Server) guardMiddleware() func(http.Handler) http.Handler {
	return guard.Middleware(guard.MiddlewareConfig{
		Auth:          s.api,
		Cookie:        cookieSettings(s.config),
		LoginPath:     s.config.GetLoginPath(),
		HTTPOnly:      s.config.GetRefreshTokenHTTPOnly(),
		Timeout:       s.config.GetSessionResolveTimeout(),
		RotationGrace: s.config.GetRotationGrace(),
		Loading:       s.LoadingHandler(),
		Metrics:       s.metrics,
	})
}
