// =============================================================================
// Picking Reports - Main Entry Point
// =============================================================================
//
// USAGE:
//   picking process    - Build the picking reports of every export
//   picking denied     - Build the denied products report
//   picking submit     - Upload a normalized export to the API
//   picking validate   - Check configuration and, optionally, an export
//   picking version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline, reports and API client
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/picking-reports/cmd"
)

func main() {
	cmd.Execute()
}
