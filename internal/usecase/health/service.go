package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the database answers but speaker records cannot be read.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckSkipped indicates the check did not run because a dependency failed.
	CheckSkipped CheckResult = "skipped"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Speakers int
}

// Service coordinates health checks.
type Service struct {
	db       DBPinger
	speakers SpeakerLister
}

// New creates a Service. speakers can be nil.
func New(db DBPinger, speakers SpeakerLister) *Service {
	return &Service{db: db, speakers: speakers}
}

// Check pings the database, then lists speakers when a lister is configured.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		if s.speakers != nil {
			checks["speakers"] = CheckSkipped
		}
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["database"] = CheckOK

	if s.speakers == nil {
		return Report{Status: Healthy, Checks: checks}
	}

	list, err := s.speakers.List(ctx)
	if err != nil {
		checks["speakers"] = CheckError
		return Report{Status: Degraded, Checks: checks}
	}
	checks["speakers"] = CheckOK
	return Report{Status: Healthy, Checks: checks, Speakers: len(list)}
}
