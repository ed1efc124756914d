// Package summary finds the local checkouts listed in the configuration,
// inspects their git history and packaging metadata, queries the hosting
// services for coverage, downloads and issue counts, and ranks the result.
package summary
