package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex   = "/"
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// Auth Routes - OTP login, recovery and logout
	RouteLogin             = "/login"
	RouteLoginRequestOTP   = "/login/request-otp"
	RouteLoginVerifyOTP    = "/login/verify-otp"
	RouteRecovery          = "/recovery"
	RouteRecoveryRequest   = "/recovery/request-otp"
	RouteRecoveryVerifyOTP = "/recovery/verify-otp"
	RouteLogout            = "/logout"

	// App Routes (guarded)
	RouteApp                  = "/app"
	RouteAppPatients          = "/app/patients"
	RouteAppAppointments      = "/app/appointments"
	RouteAppAppointmentStatus = "/app/appointments/{id}/status"
	RouteAppClinic            = "/app/clinic"
	RouteAppStaff             = "/app/staff"
	RouteAppStaffToggle       = "/app/staff/{id}/toggle"
	RouteAppBilling           = "/app/billing"
	RouteAppBillingCheckout   = "/app/billing/checkout"
)
