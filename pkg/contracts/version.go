package contracts

import "fmt"

// Version is the release of the adherence tool and of its summary layout
const Version = "1.0.0"

// Commit is stamped at build time with -ldflags "-X scanadherence/pkg/contracts.Commit=..."
var Commit = "dev"

// VersionString is printed by --version
func VersionString() string {
	return fmt.Sprintf("%s (commit %s)", Version, Commit)
}
