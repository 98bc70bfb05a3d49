// =============================================================================
// Excel Analytics - Main Entry Point
// =============================================================================
//
// USAGE:
//   excel-analytics process   - Turn every upload in the input directory into a chart payload
//   excel-analytics inspect   - Show the table found in one upload
//   excel-analytics validate  - Validate configuration files without processing
//   excel-analytics version   - Display the application version
//
// LAYOUT:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Normalizer, type analysis, validation, payload building
//   - pkg/       : Shared file utilities
//   - configs/   : Chart job YAML configurations
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/excel-analytics/cmd"
)

func main() {
	cmd.Execute()
}
