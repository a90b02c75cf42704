package supervisor

// Metrics receives loop events. The metrics package provides a Prometheus
// implementation.
type Metrics interface {
	SpawnAttempt(ok bool)
	Crash()
	Cooldown()
	Warning(minutes int)
	Stop(mode StopMode)
	Notification(err error)
	Observe(s Status)
}

type nopMetrics struct{}

func (nopMetrics) SpawnAttempt(bool)  {}
func (nopMetrics) Crash()             {}
func (nopMetrics) Cooldown()          {}
func (nopMetrics) Warning(int)        {}
func (nopMetrics) Stop(StopMode)      {}
func (nopMetrics) Notification(error) {}
func (nopMetrics) Observe(Status)     {}
