package feature

import "github.com/btcsuite/btclog"

// log is the package-wide logger, disabled until UseLogger installs a real
// backend. No function in the package currently logs through it.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by this package. This should
// be called before the package is used, usually by the caller wiring up the
// node's logging subsystem.
func UseLogger(logger btclog.Logger) {
	log = logger
}
