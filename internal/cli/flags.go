package cli

import (
	"time"

	"github.com/spf13/pflag"
)

// Update structs carry pointers so unset fields keep the server's current
// values. These helpers promote a flag variable to a pointer only when
// the flag was set on the command line.

func changedString(flags *pflag.FlagSet, name string, v *string) *string {
	if flags.Changed(name) {
		return v
	}
	return nil
}

func changedInt(flags *pflag.FlagSet, name string, v *int) *int {
	if flags.Changed(name) {
		return v
	}
	return nil
}

func changedDuration(flags *pflag.FlagSet, name string, v *time.Duration) *time.Duration {
	if flags.Changed(name) {
		return v
	}
	return nil
}
