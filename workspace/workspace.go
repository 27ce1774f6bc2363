// Package workspace is the signed-in clinic workspace: CRUD calls against
// the backend with results cached per session.
//
// Mutations never re-fetch. The record the backend returns is merged into
// the cached collection: created records go first, updated ones replace
// the cached record with the same id.
package workspace

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/cache"
)

type Workspace struct {
	client *api.Client

	patients     *cache.Keyed[int64, api.PatientRecord]
	appointments *cache.Keyed[int64, api.AppointmentRecord]
	staff        *cache.Keyed[int64, api.StaffMember]
	clinic       cache.Value[api.ClinicProfile]
	billing      cache.Value[api.BillingStatus]
}

// New returns a workspace whose requests carry the bearer token from
// tokens, usually a *session.State.
func New(client *api.Client, tokens oauth2.TokenSource) *Workspace {
	return &Workspace{
		client:       client.WithTokens(tokens),
		patients:     cache.NewKeyed(func(p api.PatientRecord) int64 { return p.ID }),
		appointments: cache.NewKeyed(func(a api.AppointmentRecord) int64 { return a.ID }),
		staff:        cache.NewKeyed(func(s api.StaffMember) int64 { return s.ID }),
	}
}

func (w *Workspace) Patients(ctx context.Context) ([]api.PatientRecord, error) {
	if items, ok := w.patients.Items(); ok {
		return items, nil
	}
	items, err := w.client.Patients(ctx)
	if err != nil {
		return nil, err
	}
	w.patients.Set(items)
	return items, nil
}

func (w *Workspace) CreatePatient(ctx context.Context, in api.NewPatient) (api.PatientRecord, error) {
	created, err := w.client.CreatePatient(ctx, in)
	if err != nil {
		return api.PatientRecord{}, err
	}
	w.patients.Prepend(created)
	return created, nil
}

func (w *Workspace) Appointments(ctx context.Context) ([]api.AppointmentRecord, error) {
	if items, ok := w.appointments.Items(); ok {
		return items, nil
	}
	items, err := w.client.Appointments(ctx)
	if err != nil {
		return nil, err
	}
	w.appointments.Set(items)
	return items, nil
}

func (w *Workspace) CreateAppointment(ctx context.Context, in api.NewAppointment) (api.AppointmentRecord, error) {
	created, err := w.client.CreateAppointment(ctx, in)
	if err != nil {
		return api.AppointmentRecord{}, err
	}
	w.appointments.Prepend(created)
	return created, nil
}

func (w *Workspace) UpdateAppointmentStatus(ctx context.Context, id int64, status api.AppointmentStatus) (api.AppointmentRecord, error) {
	updated, err := w.client.UpdateAppointmentStatus(ctx, id, status)
	if err != nil {
		return api.AppointmentRecord{}, err
	}
	w.appointments.Replace(updated)
	return updated, nil
}

func (w *Workspace) Clinic(ctx context.Context) (api.ClinicProfile, error) {
	if clinic, ok := w.clinic.Get(); ok {
		return clinic, nil
	}
	clinic, err := w.client.Clinic(ctx)
	if err != nil {
		return api.ClinicProfile{}, err
	}
	w.clinic.Set(clinic)
	return clinic, nil
}

func (w *Workspace) UpdateClinic(ctx context.Context, in api.ClinicSettingsInput) (api.ClinicProfile, error) {
	updated, err := w.client.UpdateClinic(ctx, in)
	if err != nil {
		return api.ClinicProfile{}, err
	}
	w.clinic.Set(updated)
	return updated, nil
}

func (w *Workspace) Staff(ctx context.Context) ([]api.StaffMember, error) {
	if items, ok := w.staff.Items(); ok {
		return items, nil
	}
	items, err := w.client.Staff(ctx)
	if err != nil {
		return nil, err
	}
	w.staff.Set(items)
	return items, nil
}

func (w *Workspace) SetStaffActive(ctx context.Context, id int64, active bool) (api.StaffMember, error) {
	updated, err := w.client.SetStaffActive(ctx, id, active)
	if err != nil {
		return api.StaffMember{}, err
	}
	w.staff.Replace(updated)
	return updated, nil
}

func (w *Workspace) BillingStatus(ctx context.Context) (api.BillingStatus, error) {
	if status, ok := w.billing.Get(); ok {
		return status, nil
	}
	status, err := w.client.BillingStatus(ctx)
	if err != nil {
		return api.BillingStatus{}, err
	}
	w.billing.Set(status)
	return status, nil
}

// Checkout starts a payment and records the checkout URL on the cached
// billing status.
func (w *Workspace) Checkout(ctx context.Context) (api.Checkout, error) {
	checkout, err := w.client.BillingCheckout(ctx)
	if err != nil {
		return api.Checkout{}, err
	}
	w.billing.Update(func(s api.BillingStatus) api.BillingStatus {
		s.LastCheckoutURL = checkout.CheckoutURL
		return s
	})
	return checkout, nil
}

// Invalidate drops every cached collection.
func (w *Workspace) Invalidate() {
	w.patients.Invalidate()
	w.appointments.Invalidate()
	w.staff.Invalidate()
	w.clinic.Invalidate()
	w.billing.Invalidate()
}
