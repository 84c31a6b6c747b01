// Package shared holds code used by more than one layer of the KPI tools
// without belonging to any of them.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on structured logs
//   - HourlyFixture for generating KPI tables with a known shape
//   - CSV writers for KPI and cell-location fixtures
//
// Nothing here may import a domain package.
package shared
