package exporter

import (
	"fmt"

	"github.com/filipkrasniqi/networkcovid/internal/errors"
)

// Variant identifies one of the three report charts.
type Variant string

const (
	VariantDaily  Variant = "daily"
	VariantHourly Variant = "hourly"
	VariantBox    Variant = "box"
)

// Variants lists the charts in the order a report renders them.
var Variants = []Variant{VariantDaily, VariantHourly, VariantBox}

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantDaily, VariantHourly, VariantBox:
		return v, nil
	}
	return "", errors.NewAppValidationError(fmt.Sprintf("unknown chart variant %q", s)).
		WithContext("allowed", Variants)
}

// FileName is the PNG file name of a chart. The cell identifier is used as is.
func FileName(v Variant, kpiName, cellID string) string {
	switch v {
	case VariantDaily:
		return fmt.Sprintf("Median Daily Traces of %s - Cell Id: %s.png", kpiName, cellID)
	case VariantHourly:
		return fmt.Sprintf("Median Hourly Traces of %s - Cell Id: %s.png", kpiName, cellID)
	case VariantBox:
		return fmt.Sprintf("Box Plot of Median Daily%s - Cell Id: %s.png", kpiName, cellID)
	}
	return fmt.Sprintf("%s of %s - Cell Id: %s.png", v, kpiName, cellID)
}

// Title is the heading drawn on a chart.
func Title(v Variant, kpiName, cellID string) string {
	switch v {
	case VariantDaily:
		return fmt.Sprintf("Median Daily/Night Traces of %s - Cell_id:%s", kpiName, cellID)
	case VariantHourly:
		return fmt.Sprintf("Median Hourly Trace of %s - Cell Id: %s", kpiName, cellID)
	case VariantBox:
		return fmt.Sprintf("Box Plot of Median Daily %s - Cell Id: %s", kpiName, cellID)
	}
	return fmt.Sprintf("%s of %s - Cell Id: %s", v, kpiName, cellID)
}
