// Package locator discovers the runtime host library on the local
// machine.
//
// Discovery probes the DOTNET_ROOT environment override first, then the
// platform's default installation roots. Inside an installation root
// the host library lives under host/fxr/<version>/; the locator picks
// the highest stable semantic version, falling back to prereleases only
// when nothing stable is installed.
//
// Locate is a pure query. It never loads the library and holds no
// state, so a failed probe leaves nothing behind.
package locator
