// Package http implements the HTTP handlers of the KPI report service. It is
// a thin layer over services.ReportService: handlers parse URL parameters,
// call the service and render JSON or PNG responses.
//
// Errors returned by the service are internal/errors AppError values and are
// rendered as RFC 7807 problem documents by the shared ErrorHandler:
//
//	KEY_NOT_FOUND  404
//	EMPTY_RESULT   422
//	VALIDATION     400
//	anything else  500
//
// Routes:
//
//	GET /api/health
//	GET /api/v1/dataset
//	GET /api/v1/cells
//	GET /api/v1/cells/{cellID}/kpis/{kpi}/daily?period=day|night|all
//	GET /api/v1/cells/{cellID}/kpis/{kpi}/charts/{variant}
package http
