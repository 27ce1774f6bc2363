package api

// TokenPair is issued by OTP verification and by refresh. The access token
// only ever lives in memory; the refresh token is persisted in a cookie.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleStaff  Role = "STAFF"
	RoleDoctor Role = "DOCTOR"
)

type UserProfile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role"`
}

type ClinicProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Bootstrap is the authenticated user's profile and active clinic. It gates
// rendering of every protected page.
type Bootstrap struct {
	Profile UserProfile   `json:"profile"`
	Clinic  ClinicProfile `json:"clinic"`
}

// OTPPurpose distinguishes a normal login from account recovery.
type OTPPurpose string

const (
	PurposeLogin    OTPPurpose = "login"
	PurposeRecovery OTPPurpose = "recovery"
)

type PatientRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"createdAt"`
}

type NewPatient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCanceled  AppointmentStatus = "CANCELED"
)

type AppointmentRecord struct {
	ID      int64             `json:"id"`
	Patient string            `json:"patient"`
	Service string            `json:"service"`
	Date    string            `json:"date"`
	Time    string            `json:"time"`
	Status  AppointmentStatus `json:"status"`
}

type NewAppointment struct {
	Patient string `json:"patient"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type StaffMember struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// ClinicSettingsInput is a partial clinic update; nil fields are untouched.
type ClinicSettingsInput struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	Timezone *string `json:"timezone,omitempty"`
}

type BillingStatus struct {
	Plan              string `json:"plan"`
	RenewalDate       string `json:"renewalDate"`
	PaymentStatus     string `json:"paymentStatus"`
	Amount            string `json:"amount"`
	SubscriptionState string `json:"subscriptionState,omitempty"`
	LastCheckoutURL   string `json:"lastCheckoutUrl,omitempty"`
}

type Checkout struct {
	CheckoutURL string `json:"checkout_url"`
}
