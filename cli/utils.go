package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// printf prints a message with a trailing newline.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

var warningPrefix = color.New(color.Bold, color.FgYellow).Sprint("Warning:")

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, warningPrefix+" "+format+"\n", a...)
}

// floatArgs parses exactly n positional float arguments.
func floatArgs(c *cli.Context, names ...string) ([]float64, error) {
	if c.Args().Len() != len(names) {
		return nil, errors.Errorf("expected arguments <%s>, got %d", strings.Join(names, "> <"), c.Args().Len())
	}
	out := make([]float64, len(names))
	for i, name := range names {
		v, err := strconv.ParseFloat(c.Args().Get(i), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", name)
		}
		out[i] = v
	}
	return out, nil
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
