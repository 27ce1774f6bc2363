package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) Patients(ctx context.Context) ([]PatientRecord, error) {
	var out []PatientRecord
	err := c.call(ctx, "list patients", http.MethodGet, RoutePatients, nil, &out)
	return out, err
}

func (c *Client) CreatePatient(ctx context.Context, in NewPatient) (PatientRecord, error) {
	var out PatientRecord
	err := c.call(ctx, "create patient", http.MethodPost, RoutePatients, in, &out)
	return out, err
}

func (c *Client) Appointments(ctx context.Context) ([]AppointmentRecord, error) {
	var out []AppointmentRecord
	err := c.call(ctx, "list appointments", http.MethodGet, RouteAppointments, nil, &out)
	return out, err
}

func (c *Client) CreateAppointment(ctx context.Context, in NewAppointment) (AppointmentRecord, error) {
	var out AppointmentRecord
	err := c.call(ctx, "create appointment", http.MethodPost, RouteAppointments, in, &out)
	return out, err
}

func (c *Client) UpdateAppointmentStatus(ctx context.Context, id int64, status AppointmentStatus) (AppointmentRecord, error) {
	payload := struct {
		Status AppointmentStatus `json:"status"`
	}{Status: status}
	var out AppointmentRecord
	err := c.call(ctx, "update appointment", http.MethodPatch, fmt.Sprintf("%s/%d", RouteAppointments, id), payload, &out)
	return out, err
}

func (c *Client) Clinic(ctx context.Context) (ClinicProfile, error) {
	var out ClinicProfile
	err := c.call(ctx, "get clinic", http.MethodGet, RouteClinic, nil, &out)
	return out, err
}

func (c *Client) UpdateClinic(ctx context.Context, in ClinicSettingsInput) (ClinicProfile, error) {
	var out ClinicProfile
	err := c.call(ctx, "update clinic", http.MethodPut, RouteClinic, in, &out)
	return out, err
}

func (c *Client) Staff(ctx context.Context) ([]StaffMember, error) {
	var out []StaffMember
	err := c.call(ctx, "list staff", http.MethodGet, RouteStaff, nil, &out)
	return out, err
}

func (c *Client) SetStaffActive(ctx context.Context, id int64, active bool) (StaffMember, error) {
	payload := struct {
		Active bool `json:"active"`
	}{Active: active}
	var out StaffMember
	err := c.call(ctx, "toggle staff", http.MethodPatch, fmt.Sprintf("%s/%d", RouteStaff, id), payload, &out)
	return out, err
}

func (c *Client) BillingStatus(ctx context.Context) (BillingStatus, error) {
	var out BillingStatus
	err := c.call(ctx, "billing status", http.MethodGet, RouteBillingState, nil, &out)
	return out, err
}

func (c *Client) BillingCheckout(ctx context.Context) (Checkout, error) {
	var out Checkout
	err := c.call(ctx, "billing checkout", http.MethodPost, RouteCheckout, nil, &out)
	return out, err
}
