// Package flagx picks individual flags out of the command line so each
// config stage can parse only the flags it owns.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the flags named in allowed together with their
// values. Both "-c file" and "-c=file" forms are recognised. A following
// token that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowed []string) []string {
	keep := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		keep[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := keep[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := keep[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// stringFlag returns the last value given for any of names, or "".
func stringFlag(args []string, names ...string) string {
	allowed := make([]string, len(names))
	for i, n := range names {
		allowed[i] = "-" + n
	}

	var v string
	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	for _, n := range names {
		fs.StringVar(&v, n, "", "")
	}
	_ = fs.Parse(FilterArgs(args, allowed))
	return v
}

// ConfigPath returns the JSON config file given with -c or -config.
func ConfigPath(args []string) string {
	return stringFlag(args, "config", "c")
}

// EnvFilePath returns the dotenv file given with -e or -env.
func EnvFilePath(args []string) string {
	return stringFlag(args, "env", "e")
}
