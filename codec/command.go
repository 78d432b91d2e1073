package codec

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// The placeholder for the source file in decode commands
const InputPlaceholder = "${INPUT}"

// DefaultDecodeCommand asks ImageMagick for a PNG on stdout.
const DefaultDecodeCommand = "magick " + InputPlaceholder + " png:-"

// SplitCommand splits a command template into arguments without a shell.
func SplitCommand(command string) ([]string, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid command syntax: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return args, nil
}

// ValidateArgs requires the input placeholder and rejects shell
// metacharacters everywhere else. exec never runs a shell, but a template
// containing them is almost certainly written for one.
func ValidateArgs(args []string) error {
	hasInput := false
	for _, arg := range args {
		if arg == InputPlaceholder {
			hasInput = true
		} else if strings.ContainsAny(arg, "|&;`$()<>") {
			return fmt.Errorf("disallowed character found in argument: %s", arg)
		}
	}

	if !hasInput {
		return fmt.Errorf("command must include the input placeholder '%s'", InputPlaceholder)
	}
	return nil
}

// expand substitutes path for the placeholder. Splitting happens first so
// a path with spaces stays a single argument.
func expand(args []string, path string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if arg == InputPlaceholder {
			arg = path
		}
		out[i] = arg
	}
	return out
}
