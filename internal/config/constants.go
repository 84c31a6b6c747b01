package config

import "time"

// Application constants
const (
	AppName    = "networkcovid"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. NETCOVID_ANALYSIS_KPI.
	EnvPrefix = "NETCOVID"

	// Dataset defaults: the Milan 800 MHz January extraction.
	DefaultKPIFile       = "data/Milano_800_January_MRN.csv"
	DefaultLocationsFile = "data/Coordinates_MILANO.csv"
	DefaultCellColumn    = "ECELL_ID"
	DefaultTimeColumn    = "Date"
	DefaultKPITable      = "kpi"
	DefaultLocationTable = "locations"

	// Analysis defaults: a city-centre cell and downlink volume.
	DefaultCellID = "c945addeee641c3b7e7098fe8cad5defe032223c"
	DefaultKPI    = "DL_VOL"

	// Window markers, both exclusive. Monday 13 to Sunday 19 January 2020.
	DefaultWindowAfter  = "2020-01-12T23:59:00"
	DefaultWindowBefore = "2020-01-20T00:01:00"

	// Day/night clock ranges, both ends inclusive.
	DefaultDayStart   = "06:00:00"
	DefaultDayEnd     = "23:59:59"
	DefaultNightStart = "00:00:00"
	DefaultNightEnd   = "05:59:59"

	// TimestampLayout is the layout of window markers in configuration.
	TimestampLayout = "2006-01-02T15:04:05"
	// ClockLayout is the layout of day/night range bounds.
	ClockLayout = "15:04:05"

	// Chart defaults, matching a 15x8 inch figure.
	DefaultChartUnit   = "Bits"
	DefaultChartWidth  = 15.0
	DefaultChartHeight = 8.0

	// Server defaults
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRateLimitRPS    = 20
	DefaultRateLimitBurst  = 40
)

// configFileLocations are searched in order when no explicit config path is given.
var configFileLocations = []string{
	"netcovid.yaml",
	"configs/netcovid.yaml",
	"../configs/netcovid.yaml",
}
