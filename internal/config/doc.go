// Package config provides configuration management for the KPI analysis tools.
// It handles loading configuration from multiple sources, validation, and path
// resolution.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. YAML file (netcovid.yaml, configs/netcovid.yaml or an explicit path)
//  3. Environment variables with the NETCOVID_ prefix
//
// Command line flags of the individual tools override the loaded values.
//
// # Environment Variables
//
//	NETCOVID_DATASET_KPI_FILE=data/Milano_800_January_MRN.csv
//	NETCOVID_ANALYSIS_CELL_ID=c945addeee641c3b7e7098fe8cad5defe032223c
//	NETCOVID_ANALYSIS_KPI=USERNUM_AVG
//	NETCOVID_ANALYSIS_WINDOW_AFTER=2020-01-12T23:59:00
//	NETCOVID_LOGGING_LEVEL=debug
//	NETCOVID_SERVER_PORT=9090
//
// # Validation
//
// Struct tags are checked with go-playground/validator: clock bounds must be
// HH:MM:SS, window markers YYYY-MM-DDTHH:MM:SS with after < before, SQLite
// table names plain identifiers.
package config
