package plugin

import (
	"strings"

	"github.com/spf13/pflag"
)

// ParseKnown parses only the long flags fs defines out of args, returning
// every token fs did not recognize in its original order. This is the
// argument contract every plugin parser follows: consume your own options,
// pass the rest through for the next plugin stage.
//
// Unknown flags keep their value token when one follows, so a later parser
// sees the pair intact. Only --name and --name=value forms are recognized;
// anything else passes through untouched.
func ParseKnown(fs *pflag.FlagSet, args []string) ([]string, error) {
	var own, leftover []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") || arg == "--" {
			leftover = append(leftover, arg)
			continue
		}

		name := strings.TrimPrefix(arg, "--")
		inline := false
		if eq := strings.Index(name, "="); eq >= 0 {
			name = name[:eq]
			inline = true
		}

		flag := fs.Lookup(name)
		if flag == nil {
			leftover = append(leftover, arg)
			if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				leftover = append(leftover, args[i])
			}
			continue
		}

		own = append(own, arg)
		if !inline && flag.Value.Type() != "bool" && i+1 < len(args) {
			i++
			own = append(own, args[i])
		}
	}

	if err := fs.Parse(own); err != nil {
		return nil, err
	}
	return leftover, nil
}
