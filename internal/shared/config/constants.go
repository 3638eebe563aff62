// Package config holds limits and formats shared by handlers and services.
package config

// MaxPageSize caps the limit query parameter of the paginated session list.
const MaxPageSize = 100

// MaxExportLimit caps the number of sessions in one CSV export.
const MaxExportLimit = 10000

// CSVColumns is the column order of the CSV export. Planned sessions fill
// duration, distance_m, pace and rpe from their targets.
var CSVColumns = []string{
	"session_number",
	"week",
	"status",
	"date",
	"type",
	"duration",
	"distance_m",
	"pace",
	"heart_rate",
	"rpe",
	"comments",
}
