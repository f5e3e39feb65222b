// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package supervisor

import (
	"context"
	"fmt"
	"sync/atomic"
)

// fakeService stands in for a layer's long-running component. It fails the
// first failures runs, then blocks until canceled.
type fakeService struct {
	name     string
	failures int32
	runs     atomic.Int32
	exits    atomic.Int32
}

func newFakeService(name string, failures int) *fakeService {
	return &fakeService{name: name, failures: int32(failures)}
}

func (f *fakeService) Serve(ctx context.Context) error {
	run := f.runs.Add(1)
	defer f.exits.Add(1)

	if run <= f.failures {
		return fmt.Errorf("%s: run %d failed", f.name, run)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) String() string { return f.name }
