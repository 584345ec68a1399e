package health

import "context"

// Status is the roll-up the health endpoint reports.
type Status string

const (
	// Healthy means every probe passed.
	Healthy Status = "ok"
	// Degraded means a provider is down; the pipeline still serves
	// fallback answers.
	Degraded Status = "degraded"
	// Unhealthy means the vector store is unreachable; retrieval cannot
	// work at all.
	Unhealthy Status = "error"
)

// CheckResult grades one component probe.
type CheckResult string

// Probe grades.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report carries the roll-up status and the per-component grades.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service probes the vector store and the wired LLM providers.
type Service struct {
	store     Pinger
	providers map[string]Checker
}

// New wires the probes. Nil providers are simply not probed.
func New(store Pinger, embedding, generation Checker) *Service {
	providers := make(map[string]Checker, 2)
	if embedding != nil {
		providers["embedding"] = embedding
	}
	if generation != nil {
		providers["generation"] = generation
	}
	return &Service{store: store, providers: providers}
}

// Check runs every probe. The store is load-bearing, so its failure alone
// reports Unhealthy; a failing provider leaves the pipeline serving fallback
// answers and only degrades the roll-up.
func (s *Service) Check(ctx context.Context) Report {
	rep := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.providers)+1)}

	storeErr := s.store.Ping(ctx)
	rep.Checks["database"] = grade(storeErr)
	if storeErr != nil {
		rep.Status = Unhealthy
	}

	for name, probe := range s.providers {
		err := probe.HealthCheck(ctx)
		rep.Checks[name] = grade(err)
		if err != nil && rep.Status == Healthy {
			rep.Status = Degraded
		}
	}
	return rep
}

func grade(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
