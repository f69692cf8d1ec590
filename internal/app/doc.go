// Package app serves the demo storefront over HTTP.
//
// Pages are html/template files. Every interactive element carries a
// data-testid locator, and after a page is executed the output passes
// through the mutator for the page's direction in the server's current
// DriftState. The state is an explicit value: SetDrift swaps it and the
// version is echoed in the X-Locator-Map-Version response header.
//
// Templates come from an fs.FS: the embedded defaults, or a directory on
// disk that is re-parsed on every request so in-place mutation by the
// CLI is visible without a restart.
package app
