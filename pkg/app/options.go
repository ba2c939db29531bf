package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the option structs of every binary.
type NamedFlagSetOptions interface {
	// Flags returns the flag sets grouped by concern.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields that were not set explicitly.
	Complete() error

	// Validate checks the options and aggregates every violation.
	Validate() error
}

// Logger is the subset of options that configures logging once flags are parsed.
type Logger interface {
	InitLog()
}
