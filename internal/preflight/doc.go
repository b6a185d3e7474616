// Package preflight provides readiness checks for the filesystem paths and
// the Blender binary the render daemon depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs failures so a misconfigured
//     install is visible before the first scene fails.
//   - The CLI "kiln status" command uses individual check functions
//     (CheckRenderer, CheckDirectoryAccess) to display readiness.
//
// The watch folder check is gated on its config field; everything else
// always runs.
package preflight
