package cli

import (
	"flag"
	"fmt"
	"io"
)

const defaultConfigPath = "./typewalk.toml"

const (
	commandCheck     = "check"
	commandDef       = "def"
	commandAddImport = "add-import"
)

type cliOptions struct {
	configPath string
	verbose    bool
	watch      bool
	version    bool
	command    string
	args       []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("typewalk", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: typewalk [flags] check [paths...]")
		fmt.Fprintln(stderr, "       typewalk [flags] def <file> <offset>")
		fmt.Fprintln(stderr, "       typewalk [flags] add-import <file> <module> <name>")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.watch, "watch", false, "Re-check on file changes (check only)")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		opts.command, opts.args = rest[0], rest[1:]
	}
	return opts, nil
}

func applyModeOptions(opts *cliOptions) error {
	switch opts.command {
	case commandCheck:
		if len(opts.args) == 0 {
			opts.args = []string{"."}
		}
	case commandDef:
		if len(opts.args) != 2 {
			return fmt.Errorf("def requires two arguments: typewalk def <file> <offset>")
		}
	case commandAddImport:
		if len(opts.args) != 3 {
			return fmt.Errorf("add-import requires three arguments: typewalk add-import <file> <module> <name>")
		}
	case "":
		return fmt.Errorf("a command is required: check, def or add-import")
	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}
	if opts.watch && opts.command != commandCheck {
		return fmt.Errorf("-watch can only be combined with check")
	}
	return nil
}
