package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RegistrationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hub_registrations_created_total", Help: "Total tournament registrations created"},
	)
	RegistrationsApproved = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hub_registrations_approved_total", Help: "Total registrations approved by admins"},
	)
	RegistrationsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hub_registrations_rejected_total", Help: "Total registrations rejected by admins"},
	)
	TournamentsArchived = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hub_tournaments_archived_total", Help: "Total tournaments archived by the sweep"},
	)
	SweepFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hub_sweep_failures_total", Help: "Total archival sweeps rolled back with an error"},
	)
)

func Register() {
	prometheus.MustRegister(
		RegistrationsCreated,
		RegistrationsApproved,
		RegistrationsRejected,
		TournamentsArchived,
		SweepFailures,
	)
}
