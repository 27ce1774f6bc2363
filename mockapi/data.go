package mockapi

import (
	"github.com/beautyclinic/clinic-web/api"
)

type dataset struct {
	profile      api.UserProfile
	clinic       api.ClinicProfile
	patients     []api.PatientRecord
	appointments []api.AppointmentRecord
	staff        []api.StaffMember
	billing      api.BillingStatus
	nextID       int64
}

const CheckoutURL = "https://bitpay.ir/checkout/mock"

func seedData() dataset {
	return dataset{
		profile: api.UserProfile{
			ID:       "USR-1",
			FullName: "Mona Zamani",
			Phone:    "09120000000",
			Role:     api.RoleOwner,
		},
		clinic: api.ClinicProfile{
			ID:       "CL-20",
			Name:     "Aftab Clinic",
			Address:  "Valiasr St, Tehran",
			Timezone: "Asia/Tehran",
		},
		patients: []api.PatientRecord{
			{ID: 101, Name: "Mona Zamani", Phone: "09120000000", CreatedAt: "1403/01/10"},
			{ID: 102, Name: "Sahar Moradi", Phone: "09121111111", CreatedAt: "1403/02/05"},
		},
		appointments: []api.AppointmentRecord{
			{ID: 1, Patient: "Mona Zamani", Service: "Botox", Date: "1403/03/15", Time: "10:00", Status: api.StatusScheduled},
			{ID: 2, Patient: "Sahar Moradi", Service: "Laser", Date: "1403/03/16", Time: "12:30", Status: api.StatusCompleted},
		},
		staff: []api.StaffMember{
			{ID: 1, Name: "Dr. Mina Tehrani", Role: "DOCTOR", Active: true},
			{ID: 2, Name: "Aida Moradi", Role: "RECEPTION", Active: true},
			{ID: 3, Name: "Sara Mohseni", Role: "NURSE", Active: false},
		},
		billing: api.BillingStatus{
			Plan:              "Professional",
			RenewalDate:       "1403/12/20",
			PaymentStatus:     "Succeeded",
			Amount:            "12,000,000 Toman",
			SubscriptionState: "active",
		},
		nextID: 1000,
	}
}

func (d *dataset) newID() int64 {
	d.nextID++
	return d.nextID
}

// conflicts reports whether a live appointment already holds date and time.
func (d *dataset) conflicts(date, t string) bool {
	for _, a := range d.appointments {
		if a.Date == date && a.Time == t && a.Status != api.StatusCanceled {
			return true
		}
	}
	return false
}
