package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	LoginSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shadow_login_logins_success_total",
		Help: "Total number of completed federated logins.",
	}, []string{"provider"})
	LoginFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shadow_login_logins_failure_total",
		Help: "Total number of federated logins that failed after the provider callback.",
	}, []string{"registration_id"})
	UserCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shadow_login_users_created_total",
		Help: "Total number of shadow users created on first login.",
	}, []string{"provider"})
	UserUpdatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shadow_login_users_updated_total",
		Help: "Total number of logins that changed a tracked profile attribute.",
	}, []string{"provider"})
	ProvisioningConflictTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shadow_login_provisioning_conflicts_total",
		Help: "Total number of first-login inserts that lost a race to a concurrent login.",
	})
)

// InitCustomMetrics registers the collectors on reg. It should be called once
// at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		return
	}

	collectors := map[string]prometheus.Collector{
		"LoginSuccessTotal":         LoginSuccessTotal,
		"LoginFailureTotal":         LoginFailureTotal,
		"UserCreatedTotal":          UserCreatedTotal,
		"UserUpdatedTotal":          UserUpdatedTotal,
		"ProvisioningConflictTotal": ProvisioningConflictTotal,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msgf("Failed to register %s metric", name)
		}
	}
}
