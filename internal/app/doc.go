// Package app wires the KPI report service into an HTTP server and manages
// its lifecycle.
//
// # Initialization Flow
//
//  1. The caller loads configuration, the logger and OpenTelemetry
//  2. NewApplication creates the instruments and the report service
//  3. LoadDataset reads the KPI and location tables once
//  4. Run serves HTTP and samples runtime metrics until the context ends
//
// # Usage
//
//	application, err := app.NewApplication(cfg, nil, logger, providers)
//	if err != nil {
//	    return err
//	}
//	if err := application.LoadDataset(ctx); err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Cancelling the context passed to Run drains in-flight requests within
// Server.ShutdownTimeout and flushes the OpenTelemetry providers. The package
// never calls os.Exit.
package app
