package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"bitbang/hw/devices"
	"bitbang/log"
)

type mode byte

const (
	replMode    mode = iota // Interactive register banging
	endianMode              // Show byte order policy
	getMode                 // Read a register or bitfield
	setMode                 // Write a register or bitfield
	dumpMode                // Dump devices
	layoutsMode             // List known device layouts
	versionMode             // Show bitbang version
)

type (
	CLI struct {
		Repl    Repl      `cmd:"" help:"Interactive register and bitfield banging on RAM devices. (default command)" default:"1"`
		Endian  EndianCmd `cmd:"" help:"Show the byte order policy in effect."`
		Get     Get       `cmd:"" help:"Read a register or a bitfield."`
		Set     Set       `cmd:"" help:"Write a register or a bitfield."`
		Dump    Dump      `cmd:"" help:"Dump device registers."`
		Layouts Layouts   `cmd:"" help:"List known device layouts."`
		Version Version   `cmd:"" help:"Show bitbang version."`

		Config    string     `name:"config" help:"${config_help}" type:"path" placeholder:"FILE"`
		Order     string     `name:"endian" help:"${endian_help}" placeholder:"host|big|little"`
		Unchecked bool       `name:"unchecked" help:"${unchecked_help}"`
		Log       logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode    mode
		command string
	}

	Repl      struct{}
	EndianCmd struct{}
	Layouts   struct{}
	Version   struct{}

	Get struct {
		Device string `arg:"" help:"Device name."`
		Reg    string `arg:"" help:"${reg_help}"`
		Bits   string `arg:"" optional:"" help:"${bits_help}"`
	}

	Set struct {
		Device string   `arg:"" help:"Device name."`
		Reg    string   `arg:"" help:"${reg_help}"`
		Args   []string `arg:"" name:"[bits] value" help:"Optional bit range, then the value to write."`
	}

	Dump struct {
		Devices []string `arg:"" optional:"" name:"device" help:"Devices to dump, all if none."`
		JSON    bool     `name:"json" help:"Dump canonical register values as JSON."`
	}
)

// Validate implements kong.Validatable.
func (s *Set) Validate() error {
	if len(s.Args) < 1 || len(s.Args) > 2 {
		return fmt.Errorf("expected [bits] value, got %d arguments", len(s.Args))
	}
	return nil
}

// bitsValue splits the positional arguments of set.
func (s *Set) bitsValue() (bits, value string) {
	if len(s.Args) == 2 {
		return s.Args[0], s.Args[1]
	}
	return "", s.Args[0]
}

var vars = kong.Vars{
	"config_help":    "Device configuration file. (default: user config dir/bitbang/devices.toml)",
	"endian_help":    "Byte order policy, overrides the configuration file and the build default.",
	"unchecked_help": "Disable register index, bit range and value validation.",
	"log_help":       "Enable logging for specified modules.",
	"reg_help":       "Register index, or field name.",
	"bits_help":      "Bit range LO:HI, or single bit N.",
}

func newParser(cli *CLI) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("bitbang"),
		kong.Description("Register and bitfield banging on memory mapped devices."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := newParser(&cfg)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	cfg.mode = commandMode(ctx.Command())
	cfg.command, _, _ = strings.Cut(ctx.Command(), " ")
	return cfg
}

func commandMode(cmd string) mode {
	name, _, _ := strings.Cut(cmd, " ")
	switch name {
	case "endian":
		return endianMode
	case "get":
		return getMode
	case "set":
		return setMode
	case "dump":
		return dumpMode
	case "layouts":
		return layoutsMode
	case "version":
		return versionMode
	}
	return replMode
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}

	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.

Device layouts:
  Devices in the configuration file can use one of these layouts:
%s
`
	var mods, layouts []string
	for _, m := range log.ModuleNames() {
		mods = append(mods, "    - "+m)
	}
	for _, l := range devices.LayoutNames() {
		layouts = append(layouts, "    - "+l)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(mods, "\n"), strings.Join(layouts, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
