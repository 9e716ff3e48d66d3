package main

import (
	"os"

	"bitbang/hw/endian"
	"bitbang/log"
)

func main() {
	cli := parseArgs(os.Args[1:])
	log.AddContext(cmdContext(cli.command))

	switch cli.mode {
	case versionMode:
		printVersion(os.Stdout)
		return
	case layoutsMode:
		printLayouts(os.Stdout)
		return
	}

	cfg, err := loadConfig(cli.Config)
	checkf(err, "failed to load configuration")

	byteOrder, err := effectiveMode(cli.Order, cfg)
	checkf(err, "invalid byte order")
	unchecked := cli.Unchecked || cfg.Unchecked

	if cli.mode == replMode {
		checkf(repl(os.Stdin, os.Stdout, endian.New(byteOrder), unchecked), "repl")
		return
	}

	a, err := newApp(cfg, byteOrder, unchecked, os.Stdout)
	checkf(err, "failed to open devices")

	switch cli.mode {
	case endianMode:
		a.printEndian()
	case getMode:
		err = a.get(cli.Get)
	case setMode:
		err = a.set(cli.Set)
	case dumpMode:
		err = a.dump(cli.Dump)
	}
	a.close()
	checkf(err, "command failed")
}
