package api

// Backend route constants
const (
	RouteRequestOTP   = "/auth/request-otp"
	RouteVerifyOTP    = "/auth/verify-otp"
	RouteRefresh      = "/auth/refresh"
	RouteBootstrap    = "/auth/bootstrap"
	RoutePatients     = "/patients"
	RouteAppointments = "/appointments"
	RouteClinic       = "/clinic"
	RouteStaff        = "/staff"
	RouteBillingState = "/billing/status"
	RouteCheckout     = "/billing/checkout"
)
