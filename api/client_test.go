package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/beautyclinic/clinic-web/api"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
	"github.com/beautyclinic/clinic-web/mockapi"
)

type testFixture struct {
	mock   *mockapi.Server
	server *httptest.Server
	client *api.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	mock := mockapi.New()
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)

	client, err := api.NewClient(api.Config{BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return &testFixture{mock: mock, server: server, client: client}
}

func TestNewClient_BaseURL(t *testing.T) {
	_, err := api.NewClient(api.Config{})
	require.Error(t, err)

	_, err = api.NewClient(api.Config{BaseURL: "localhost:8000"})
	require.Error(t, err)

	c, err := api.NewClient(api.Config{BaseURL: " http://localhost:8000/ "})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", c.BaseURL())
}

func TestClient_LoginFlow(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	msg, err := f.client.RequestOTP(ctx, "09120000000", api.PurposeLogin)
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	pair, err := f.client.VerifyOTP(ctx, "09120000000", mockapi.DefaultOTPCode, api.PurposeLogin)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	boot, err := f.client.Bootstrap(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, api.RoleOwner, boot.Profile.Role)

	rotated, err := f.client.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, rotated.AccessToken)
}

func TestClient_RefreshOmitsEmptyToken(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"accessToken":"token-abc","refreshToken":"refresh-xyz"}`))
	}))
	defer srv.Close()

	c, err := api.NewClient(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	pair, err := c.Refresh(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "token-abc", pair.AccessToken)
	require.Equal(t, "refresh-xyz", pair.RefreshToken)
	require.NotContains(t, body, "refresh_token")
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		transport bool
		status    int
		message   string
		sentinel  error
	}{
		{
			name:    "message body",
			handler: mockapi.Message(http.StatusUnauthorized, "invalid refresh token"),
			status:  http.StatusUnauthorized,
			message: "invalid refresh token",
		},
		{
			name:    "detail body",
			handler:  mockapi.Detail(http.StatusBadRequest, "phone is required"),
			status:   http.StatusBadRequest,
			message:  "phone is required",
			sentinel: clinicerrors.ErrInvalidRequest,
		},
		{
			name: "non json body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("<html>bad gateway</html>"))
			},
			status:   http.StatusBadGateway,
			message:  "unable to communicate with the server",
			sentinel: clinicerrors.ErrInternal,
		},
		{
			name: "malformed success",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("{"))
			},
			transport: true,
		},
		{
			name: "success without access token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"refreshToken":"r"}`))
			},
			transport: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c, err := api.NewClient(api.Config{BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = c.Refresh(context.Background(), "r")
			require.Error(t, err)
			require.Equal(t, tt.transport, api.IsTransport(err))
			if tt.transport {
				return
			}
			var apiErr api.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.message, apiErr.Message)
			require.Equal(t, tt.status, api.StatusOf(err))
			if tt.sentinel != nil {
				require.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := api.NewClient(api.Config{BaseURL: url})
	require.NoError(t, err)
	_, err = c.Bootstrap(context.Background(), "token")
	require.True(t, api.IsTransport(err))
	require.Zero(t, api.StatusOf(err))
}

func TestClient_CRUDUsesTokenSource(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.client.Patients(ctx)
	require.Equal(t, http.StatusUnauthorized, api.StatusOf(err))

	pair, err := f.mock.IssueTokens()
	require.NoError(t, err)
	authed := f.client.WithTokens(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: pair.AccessToken}))

	patients, err := authed.Patients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 2)

	created, err := authed.CreatePatient(ctx, api.NewPatient{Name: "Nika Ahmadi", Phone: "0913"})
	require.NoError(t, err)
	require.Equal(t, "Nika Ahmadi", created.Name)

	_, err = authed.CreateAppointment(ctx, api.NewAppointment{Patient: "Mona Zamani", Date: "1403/03/15", Time: "10:00"})
	require.True(t, api.IsTimeConflict(err))
	require.ErrorIs(t, err, clinicerrors.ErrTimeConflict)
	require.False(t, api.IsPlanLimit(err))

	_, err = authed.UpdateAppointmentStatus(ctx, 999, api.StatusCanceled)
	require.ErrorIs(t, err, clinicerrors.ErrNotFound)
	_, err = authed.SetStaffActive(ctx, 999, true)
	require.ErrorIs(t, err, clinicerrors.ErrNotFound)

	f.mock.Use(http.MethodPost, api.RoutePatients, mockapi.PlanLimit("upgrade required"))
	_, err = authed.CreatePatient(ctx, api.NewPatient{Name: "Extra"})
	require.True(t, api.IsPlanLimit(err))
	require.ErrorIs(t, err, clinicerrors.ErrPlanLimit)

	appt, err := authed.UpdateAppointmentStatus(ctx, 1, api.StatusCanceled)
	require.NoError(t, err)
	require.Equal(t, api.StatusCanceled, appt.Status)

	name := "Aftab Clinic Central"
	clinic, err := authed.UpdateClinic(ctx, api.ClinicSettingsInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, clinic.Name)
	require.Equal(t, "Asia/Tehran", clinic.Timezone)

	member, err := authed.SetStaffActive(ctx, 3, true)
	require.NoError(t, err)
	require.True(t, member.Active)

	checkout, err := authed.BillingCheckout(ctx)
	require.NoError(t, err)
	require.Equal(t, mockapi.CheckoutURL, checkout.CheckoutURL)

	billing, err := authed.BillingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, mockapi.CheckoutURL, billing.LastCheckoutURL)
}
