// Package flagx picks individual flags out of a command line that is owned
// by another parser (cobra), so configuration can be loaded before the
// command tree runs.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// ConfigFlags are the spellings accepted for the JSON config file path.
var ConfigFlags = []string{"-c", "-config", "--config"}

// FilterArgs keeps only the allowed flags of args together with their values.
// Both "-f value" and "-f=value" forms are recognised; a following token that
// starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFromArgs returns the config path given in args, or "" if none.
// When the flag repeats, the last value wins.
func ConfigFileFromArgs(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, ConfigFlags))

	return path
}

// ConfigFile is ConfigFileFromArgs over the process arguments.
func ConfigFile() string {
	return ConfigFileFromArgs(os.Args[1:])
}
