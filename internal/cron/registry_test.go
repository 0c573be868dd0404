package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	registry := NewRegistry()
	reconcile := &stubJob{name: OrphanReconcileJobName}
	sweep := &stubJob{name: "staging-sweep"}
	require.NoError(t, registry.Register(reconcile))
	require.NoError(t, registry.Register(sweep))

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, reconcile, jobs[0])
	assert.Same(t, sweep, jobs[1])
	assert.Equal(t, []string{OrphanReconcileJobName, "staging-sweep"}, registry.Names())

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsInvalidJobs(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "a"})
	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(&stubJob{name: "  "}))
	assert.ErrorContains(t, registry.Register(&stubJob{name: "a"}), "already registered")
	assert.Len(t, registry.Jobs(), 1)

	assert.Panics(t, func() { NewRegistry(&stubJob{name: "x"}, &stubJob{name: "x"}) })
}
