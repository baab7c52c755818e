// Copyright © 2018 One Concern

package mocks

import (
	"sync"

	"go.opencensus.io/stats/view"
	"go.uber.org/zap"
)

// NewExporter builds a new mock opencensus exporter
func NewExporter() *Exporter {
	return &Exporter{
		l:    zap.NewNop(),
		seen: make(map[string]int),
	}
}

var _ view.Exporter = &Exporter{}

// Exporter is a mocked up opencensus exporter, which remembers the views it was fed with
type Exporter struct {
	l    *zap.Logger
	mx   sync.Mutex
	seen map[string]int
}

// ExportView logs the view data for test purpose
func (e *Exporter) ExportView(viewData *view.Data) {
	e.l.Debug("MockExporter", zap.Any("data", viewData))
	if viewData == nil || viewData.View == nil {
		return
	}
	e.mx.Lock()
	e.seen[viewData.View.Name] += len(viewData.Rows)
	e.mx.Unlock()
}

// Rows returns the number of rows exported so far for some view
func (e *Exporter) Rows(name string) int {
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.seen[name]
}
