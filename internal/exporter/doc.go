// Package exporter renders the weekly KPI charts with gonum/plot.
//
// Three variants are available:
//
//	daily   median and average trace per day of the day partition
//	hourly  raw hourly values of the whole window
//	box     one box-and-whisker summary per calendar day
//
// A ChartRenderer writes PNG files into the configured output directory,
// overwriting earlier runs, or streams the PNG to any io.Writer:
//
//	renderer := exporter.NewChartRenderer(paths, cfg.Charts, logger)
//	path, err := renderer.Save(exporter.VariantDaily, data)
package exporter
