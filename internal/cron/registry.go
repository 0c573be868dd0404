package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one unit of scheduled work. Run must return promptly once ctx is
// done.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order, keyed by unique name.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry registers jobs in order and panics on an invalid or duplicate
// job, since registration happens once during wiring.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			panic(err)
		}
	}
	return registry
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron job is nil")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron job name is required")
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
