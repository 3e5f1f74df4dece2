package render

import "sync"

// Canceller force-stops one live engine process.
type Canceller interface {
	Kill()
}

// Registry tracks which jobs can still be cancelled and which engine
// process each one is currently driving. It is the only state shared
// between a running job and its callers. Natural completion and
// cancellation both remove the entry, and only the side that wins the
// removal finalizes the job.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]Canceller
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]Canceller)}
}

// Register adds a job with no live process yet. The job goroutine rebinds
// the handle with Bind as each phase spawns its process.
func (r *Registry) Register(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = nil
}

// Bind attaches the engine process currently serving the job. It reports
// false when the job was cancelled in the meantime; the caller still owns
// proc and must stop it.
func (r *Registry) Bind(id string, proc Canceller) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false
	}
	r.jobs[id] = proc
	return true
}

// Live reports whether the job can still be cancelled.
func (r *Registry) Live(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[id]
	return ok
}

// Release removes the job and reports whether the entry was still present.
// The job goroutine calls this once its work is done; true means it won the
// removal and finalizes the job itself.
func (r *Registry) Release(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[id]
	delete(r.jobs, id)
	return ok
}

// Cancel kills the process bound to the job and removes the entry. It
// reports false when the job is unknown or already finished, which callers
// surface as "not found" rather than an error.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	proc, ok := r.jobs[id]
	delete(r.jobs, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	if proc != nil {
		proc.Kill()
	}
	return true
}

// Size returns the number of jobs that can still be cancelled.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
