// Package dataloader exposes the facade that callers actually use: a thin
// aggregation of the request registry and the build orchestrator.
package dataloader

import (
	"github.com/ChuLiYu/mozc-loader/internal/build"
	"github.com/ChuLiYu/mozc-loader/internal/loader"
	"github.com/ChuLiYu/mozc-loader/internal/parser"
	"github.com/ChuLiYu/mozc-loader/internal/registry"
	"github.com/ChuLiYu/mozc-loader/pkg/types"
)

// DataLoader aggregates a Registry and an Orchestrator. It carries no state
// of its own beyond the two it composes.
type DataLoader struct {
	registry     *registry.Registry
	orchestrator *build.Orchestrator
}

// New builds a DataLoader whose builds run through p, the module-bundle
// parser supplied by the embedding engine.
func New(p parser.Parser) *DataLoader {
	reg := registry.New()
	ld := loader.New(p)
	return &DataLoader{
		registry:     reg,
		orchestrator: build.New(reg, ld),
	}
}

// RegisterRequest forwards to the registry and returns its current Top().
func (d *DataLoader) RegisterRequest(req types.Request) uint64 {
	return d.registry.RegisterRequest(req)
}

// ReportLoadFailure forwards to the registry and returns its current Top().
func (d *DataLoader) ReportLoadFailure(fp uint64) uint64 {
	return d.registry.ReportLoadFailure(fp)
}

// Build forwards to the orchestrator, which consults the registry to
// resolve id to a request before doing anything else.
func (d *DataLoader) Build(id uint64) *build.ResponseFuture {
	return d.orchestrator.Build(id)
}

// Clear resets both the registry and the orchestrator's pending/cache maps.
func (d *DataLoader) Clear() {
	d.registry.Clear()
	d.orchestrator.Clear()
}

// Stats reports a snapshot of registry and orchestrator sizes, for status
// reporting and metrics gauges.
type Stats struct {
	Registry registry.Stats
	Build    build.Stats
}

// Stats returns the current Registry and Orchestrator snapshots.
func (d *DataLoader) Stats() Stats {
	return Stats{Registry: d.registry.Stats(), Build: d.orchestrator.Stats()}
}
