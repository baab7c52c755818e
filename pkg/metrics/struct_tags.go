// Copyright © 2018 One Concern

package metrics

import (
	"fmt"
	"path"
	"reflect"
	"strings"

	"go.opencensus.io/stats"
)

type measureKind int

const (
	unsupportedMeasure measureKind = iota
	int64Measure
	float64Measure
)

var (
	int64MeasureType   = reflect.TypeOf(&stats.Int64Measure{})
	float64MeasureType = reflect.TypeOf(&stats.Float64Measure{})
)

// metricSpec is decoded from the tags of a measure field
type metricSpec struct {
	name        string
	unit        string
	description string
	extraViews  []string
	tags        []string
}

type metricAdder func(measureKind, string, metricSpec) stats.Measure

func sameType(a, b interface{}) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// scanStruct walks a pointer to a struct and allocates a measure for every field tagged with "metric".
//
// Supported tags are:
//   - metric: the name of the measure, on *stats.Int64Measure or *stats.Float64Measure fields
//   - group: appends a path element to the location of nested measures
//   - unit: count (default), bytes, sumbytes, milliseconds or bytespersec
//   - description: describes the measure and its views
//   - extraviews: comma-separated extra aggregations (count, sum, lastvalue)
//   - tags: comma-separated tag keys retained by views
//
// Nested structs and pointers to structs are walked. Other fields are ignored.
func scanStruct(parent string, add metricAdder, m interface{}) {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("scanStruct requires a pointer to a struct, got: %T", m))
	}
	walk(parent, add, rv.Elem())
}

func walk(parent string, add metricAdder, container reflect.Value) {
	typ := container.Type()
	for i := 0; i < typ.NumField(); i++ {
		field, value := typ.Field(i), container.Field(i)
		if !value.CanSet() {
			continue
		}
		location := path.Join(parent, field.Tag.Get("group"))

		if name, ok := field.Tag.Lookup("metric"); ok {
			if measure := add(kindOf(value.Type()), location, specOf(name, field.Tag)); measure != nil {
				value.Set(reflect.ValueOf(measure))
			}
			continue
		}

		switch {
		case value.Kind() == reflect.Struct:
			walk(location, add, value)
		case value.Kind() == reflect.Ptr && value.Type().Elem().Kind() == reflect.Struct:
			if value.IsNil() {
				value.Set(reflect.New(value.Type().Elem()))
			}
			walk(location, add, value.Elem())
		}
	}
}

func kindOf(typ reflect.Type) measureKind {
	switch typ {
	case int64MeasureType:
		return int64Measure
	case float64MeasureType:
		return float64Measure
	default:
		return unsupportedMeasure
	}
}

func specOf(name string, tag reflect.StructTag) metricSpec {
	return metricSpec{
		name:        name,
		unit:        tag.Get("unit"),
		description: tag.Get("description"),
		extraViews:  splitList(tag.Get("extraviews")),
		tags:        splitList(tag.Get("tags")),
	}
}

func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
