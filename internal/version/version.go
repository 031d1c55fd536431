// Package version holds the library version reported in every snapshot.
package version

// Version is the Stratum library version stamped into snapshots as
// stratumVersion.
const Version = "1.0.0"
