// Copyright © 2018 One Concern

// Package logexporter exports opencensus views as structured log entries.
package logexporter

import (
	"go.opencensus.io/stats/view"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ view.Exporter = &Exporter{}

// Exporter writes every exported view row to a zap logger
type Exporter struct {
	l     *zap.Logger
	level zapcore.Level
	tags  map[string]string
}

// Option configures the log exporter
type Option func(*Exporter)

// WithLevel sets the log level used to report metrics. Defaults to debug.
func WithLevel(level zapcore.Level) Option {
	return func(e *Exporter) {
		e.level = level
	}
}

// WithTags adds static tags to every exported row, e.g. the name of the service
func WithTags(tags map[string]string) Option {
	return func(e *Exporter) {
		for k, v := range tags {
			e.tags[k] = v
		}
	}
}

// New log exporter
func New(logger *zap.Logger, opts ...Option) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{
		l:     logger,
		level: zapcore.DebugLevel,
		tags:  make(map[string]string),
	}
	for _, apply := range opts {
		apply(e)
	}
	return e
}

// ExportView logs one entry per row of the view
func (e *Exporter) ExportView(viewData *view.Data) {
	if viewData == nil || viewData.View == nil {
		return
	}
	if !e.l.Core().Enabled(e.level) {
		return
	}
	for _, row := range viewData.Rows {
		fields := make([]zap.Field, 0, 3+len(row.Tags)+len(e.tags))
		fields = append(fields,
			zap.String("view", viewData.View.Name),
			zap.Time("end", viewData.End),
			zap.Any("value", rowValue(row.Data)),
		)
		for k, v := range e.tags {
			fields = append(fields, zap.String(k, v))
		}
		for _, t := range row.Tags {
			fields = append(fields, zap.String(t.Key.Name(), t.Value))
		}
		e.l.Check(e.level, "metrics").Write(fields...)
	}
}

func rowValue(data view.AggregationData) interface{} {
	switch agg := data.(type) {
	case *view.CountData:
		return agg.Value
	case *view.SumData:
		return agg.Value
	case *view.LastValueData:
		return agg.Value
	case *view.DistributionData:
		return map[string]interface{}{
			"count": agg.Count,
			"min":   agg.Min,
			"max":   agg.Max,
			"mean":  agg.Mean,
		}
	default:
		return nil
	}
}
