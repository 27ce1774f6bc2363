package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/companion"
	"github.com/beautyclinic/clinic-web/cookies"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
	"github.com/beautyclinic/clinic-web/session"
)

// LoginPageData is the template model of the login and recovery pages
type LoginPageData struct {
	Phone         string
	CodeSent      bool
	RequestAction string
	VerifyAction  string
	AltPath       string
	AltLabel      string
}

// otpFlow serves one OTP purpose: a page, a request-code action and a
// verify action that starts the session.
type otpFlow struct {
	s           *Server
	purpose     api.OTPPurpose
	title       string
	pagePath    string
	requestPath string
	verifyPath  string
	altPath     string
	altLabel    string
}

func (s *Server) otpFlow(purpose api.OTPPurpose, pagePath, requestPath, verifyPath string) *otpFlow {
	f := &otpFlow{
		s:           s,
		purpose:     purpose,
		title:       "Sign in",
		pagePath:    pagePath,
		requestPath: requestPath,
		verifyPath:  verifyPath,
		altPath:     RouteRecovery,
		altLabel:    "Lost access to your account?",
	}
	if purpose == api.PurposeRecovery {
		f.title = "Recover account"
		f.altPath = RouteLogin
		f.altLabel = "Back to sign in"
	}
	return f
}

func (f *otpFlow) data(phone string, codeSent bool) LoginPageData {
	return LoginPageData{
		Phone:         phone,
		CodeSent:      codeSent,
		RequestAction: f.requestPath,
		VerifyAction:  f.verifyPath,
		AltPath:       f.altPath,
		AltLabel:      f.altLabel,
	}
}

func (f *otpFlow) render(w http.ResponseWriter, status int, phone string, codeSent bool, errMsg string) {
	data := f.s.page(f.title, nil, f.data(phone, codeSent))
	data.Error = errMsg
	f.s.pages.render(w, status, "login.html", data)
}

// PageHandler displays the phone form, or the code form once a code was
// sent (GET /login?phone=...&sent=1)
func (f *otpFlow) PageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.render(w, http.StatusOK, q.Get("phone"), q.Get("sent") == "1", q.Get("error"))
	}
}

// RequestHandler asks the backend to send a code
func (f *otpFlow) RequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			f.render(w, http.StatusBadRequest, "", false, "Invalid form data")
			return
		}
		phone := strings.TrimSpace(r.PostFormValue("phone"))
		if phone == "" {
			f.render(w, http.StatusBadRequest, "", false, "Phone number is required")
			return
		}

		if _, err := f.s.api.RequestOTP(r.Context(), phone, f.purpose); err != nil {
			log.Warn().Err(err).Str("purpose", string(f.purpose)).Msg("OTP request failed")
			f.render(w, statusFor(err), phone, false, errorText(err))
			return
		}

		target := url.URL{Path: f.pagePath, RawQuery: url.Values{"phone": {phone}, "sent": {"1"}}.Encode()}
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	}
}

// VerifyHandler exchanges the code for tokens, stores them in the session
// cookies and continues to the app
func (f *otpFlow) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			f.render(w, http.StatusBadRequest, "", false, "Invalid form data")
			return
		}
		phone := strings.TrimSpace(r.PostFormValue("phone"))
		code := strings.TrimSpace(r.PostFormValue("code"))
		if phone == "" || code == "" {
			f.render(w, http.StatusBadRequest, phone, phone != "", "Phone number and code are required")
			return
		}

		pair, err := f.s.api.VerifyOTP(r.Context(), phone, code, f.purpose)
		if err != nil {
			log.Info().Err(err).Str("purpose", string(f.purpose)).Msg("OTP verification failed")
			f.render(w, statusFor(err), phone, true, errorText(err))
			return
		}

		state, store := f.s.requestSession(w, r)
		state.SetTokens(r.Context(), &pair)
		store.Flush()
		http.Redirect(w, r, f.s.config.GetAppPath(), http.StatusSeeOther)
	}
}

// LogoutHandler clears every copy of the refresh token
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, store := s.requestSession(w, r)
		state.ClearTokens(r.Context())
		store.Flush()
		http.Redirect(w, r, s.config.GetLoginPath(), http.StatusSeeOther)
	}
}

// requestSession builds the session for one request outside the guard.
func (s *Server) requestSession(w http.ResponseWriter, r *http.Request) (*session.State, *cookies.RequestStore) {
	settings := cookieSettings(s.config)
	store := cookies.NewRequestStore(w, r)
	opts := []session.Option{
		session.WithCookieName(settings.Name),
		session.WithMaxAge(settings.MaxAge),
		session.WithSecure(settings.Secure),
	}
	if s.config.GetRefreshTokenHTTPOnly() {
		opts = append(opts, session.WithVault(companion.NewRequestVault(store, settings)))
	}
	return session.New(store, opts...), store
}

// statusFor maps a backend failure onto the status of the re-rendered form.
func statusFor(err error) int {
	if status := api.StatusOf(err); status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}

func errorText(err error) string {
	var apiErr api.APIError
	if clinicerrors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Unable to reach the server. Please try again."
}
