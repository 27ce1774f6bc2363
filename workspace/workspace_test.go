package workspace_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/internal/utils"
	"github.com/beautyclinic/clinic-web/mockapi"
	"github.com/beautyclinic/clinic-web/workspace"
)

type testFixture struct {
	mock *mockapi.Server
	ws   *workspace.Workspace
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	mock := mockapi.New()
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	pair, err := mock.IssueTokens()
	require.NoError(t, err)

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: pair.AccessToken})
	return &testFixture{mock: mock, ws: workspace.New(client, tokens)}
}

func TestWorkspace_PatientsCachedAndPrepended(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	patients, err := f.ws.Patients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 2)

	created, err := f.ws.CreatePatient(ctx, api.NewPatient{Name: "Nika Ahmadi", Phone: "09130000000"})
	require.NoError(t, err)

	patients, err = f.ws.Patients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 3)
	require.Equal(t, created, patients[0])
	require.Equal(t, 1, f.mock.Calls(http.MethodGet, api.RoutePatients))
}

func TestWorkspace_PlanLimit(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	_, err := f.ws.Patients(ctx)
	require.NoError(t, err)

	f.mock.Use(http.MethodPost, api.RoutePatients, mockapi.PlanLimit("patients quota"))
	_, err = f.ws.CreatePatient(ctx, api.NewPatient{Name: "Extra"})
	require.True(t, api.IsPlanLimit(err))
	require.Equal(t, "Your plan limit is reached; no more patients can be added.", workspace.ErrorMessage(err, workspace.ResourcePatient))

	patients, err := f.ws.Patients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 2)
}

func TestWorkspace_Appointments(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	appts, err := f.ws.Appointments(ctx)
	require.NoError(t, err)
	require.Len(t, appts, 2)

	_, err = f.ws.CreateAppointment(ctx, api.NewAppointment{Patient: "Mona Zamani", Service: "Botox", Date: "1403/03/15", Time: "10:00"})
	require.True(t, api.IsTimeConflict(err))
	require.Contains(t, workspace.ErrorMessage(err, workspace.ResourceAppointment), "TIME_CONFLICT")

	created, err := f.ws.CreateAppointment(ctx, api.NewAppointment{Patient: "Mona Zamani", Service: "Botox", Date: "1403/03/15", Time: "11:00"})
	require.NoError(t, err)

	updated, err := f.ws.UpdateAppointmentStatus(ctx, 2, api.StatusCanceled)
	require.NoError(t, err)

	appts, err = f.ws.Appointments(ctx)
	require.NoError(t, err)
	require.Len(t, appts, 3)
	require.Equal(t, created.ID, appts[0].ID)
	require.Equal(t, updated, appts[2])
	require.Equal(t, 1, f.mock.Calls(http.MethodGet, api.RouteAppointments))
}

func TestWorkspace_StaffToggle(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	staff, err := f.ws.Staff(ctx)
	require.NoError(t, err)
	require.False(t, staff[2].Active)

	_, err = f.ws.SetStaffActive(ctx, 3, true)
	require.NoError(t, err)

	staff, err = f.ws.Staff(ctx)
	require.NoError(t, err)
	require.True(t, staff[2].Active)
	require.Equal(t, int64(3), staff[2].ID)
	require.Equal(t, 1, f.mock.Calls(http.MethodGet, api.RouteStaff))
}

func TestWorkspace_ClinicAndBilling(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	clinic, err := f.ws.Clinic(ctx)
	require.NoError(t, err)
	require.Equal(t, "Aftab Clinic", clinic.Name)

	_, err = f.ws.UpdateClinic(ctx, api.ClinicSettingsInput{Timezone: utils.Ptr("Asia/Dubai")})
	require.NoError(t, err)
	clinic, err = f.ws.Clinic(ctx)
	require.NoError(t, err)
	require.Equal(t, "Asia/Dubai", clinic.Timezone)
	require.Equal(t, 1, f.mock.Calls(http.MethodGet, api.RouteClinic))

	status, err := f.ws.BillingStatus(ctx)
	require.NoError(t, err)
	require.Empty(t, status.LastCheckoutURL)

	checkout, err := f.ws.Checkout(ctx)
	require.NoError(t, err)
	require.Equal(t, mockapi.CheckoutURL, checkout.CheckoutURL)

	status, err = f.ws.BillingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, mockapi.CheckoutURL, status.LastCheckoutURL)
	require.Equal(t, 1, f.mock.Calls(http.MethodGet, api.RouteBillingState))

	f.ws.Invalidate()
	_, err = f.ws.BillingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, f.mock.Calls(http.MethodGet, api.RouteBillingState))
}

func TestErrorMessage(t *testing.T) {
	require.Empty(t, workspace.ErrorMessage(nil, workspace.ResourcePatient))
	require.Equal(t, "phone is required", workspace.ErrorMessage(api.APIError{Status: 400, Message: "phone is required"}, workspace.ResourcePatient))
	require.Equal(t, "boom", workspace.ErrorMessage(errors.New("boom"), workspace.ResourcePatient))
	require.Contains(t, workspace.ErrorMessage(api.APIError{Status: 429, Message: "PLAN_LIMIT: x"}, "invoice"), "PLAN_LIMIT")
}
