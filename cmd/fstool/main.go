// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-hclog"

	fstool "github.com/tabletdb/fstool"
	"github.com/tabletdb/fstool/config"
)

type globals struct {
	Config   string   `help:"Path to a YAML config file supplying defaults." type:"path"`
	Root     string   `help:"Storage manager root directory." short:"r"`
	WALDir   []string `name:"wal-dir" help:"Additional WAL root directory (repeatable)."`
	Detail   string   `help:"Detail level: ids, headers or full."`
	LogLevel string   `name:"log-level" help:"Diagnostic log level."`
}

type treeCmd struct{}

func (c *treeCmd) Run(g *globals) error {
	return withTool(g, func(t *fstool.Tool) error {
		return t.FsTree()
	})
}

type listLogsCmd struct {
	TabletID string `arg:"" optional:"" help:"Restrict the listing to one tablet id."`
}

func (c *listLogsCmd) Run(g *globals) error {
	return withTool(g, func(t *fstool.Tool) error {
		if c.TabletID != "" {
			return t.ListLogSegmentsForTablet(c.TabletID)
		}
		return t.ListAllLogSegments()
	})
}

type listTabletsCmd struct{}

func (c *listTabletsCmd) Run(g *globals) error {
	return withTool(g, func(t *fstool.Tool) error {
		return t.ListAllTablets()
	})
}

type dumpTabletCmd struct {
	TabletID string `arg:"" help:"Tablet id to dump."`
}

func (c *dumpTabletCmd) Run(g *globals) error {
	return withTool(g, func(t *fstool.Tool) error {
		return t.DumpTabletData(c.TabletID)
	})
}

type uuidCmd struct{}

func (c *uuidCmd) Run(g *globals) error {
	return withTool(g, func(t *fstool.Tool) error {
		return t.PrintUUID(0)
	})
}

type cli struct {
	globals

	Tree        treeCmd        `cmd:"" help:"Print the storage manager's directory tree."`
	ListLogs    listLogsCmd    `cmd:"" name:"list-logs" help:"List WAL segments for all tablets, or for one tablet id."`
	ListTablets listTabletsCmd `cmd:"" name:"list-tablets" help:"List all known tablet ids, with metadata per the detail level."`
	DumpTablet  dumpTabletCmd  `cmd:"" name:"dump-tablet" help:"Dump the logical content of one tablet."`
	UUID        uuidCmd        `cmd:"" help:"Print the storage manager's UUID."`
}

// withTool resolves config, opens the tool read-only, runs fn and closes.
func withTool(g *globals, fn func(*fstool.Tool) error) error {
	cfg := config.Default()
	if g.Config != "" {
		var err error
		cfg, err = config.Load(g.Config)
		if err != nil {
			return err
		}
	}

	root := g.Root
	if root == "" {
		root = cfg.RootDir
	}
	if root == "" {
		return errors.New("no storage root given (use --root or root_dir in the config file)")
	}

	detailName := g.Detail
	if detailName == "" {
		detailName = cfg.Detail
	}
	detail, err := fstool.ParseDetailLevel(detailName)
	if err != nil {
		return err
	}

	level := g.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "fstool",
		Level: hclog.LevelFromString(level),
	})

	walDirs := append([]string{}, cfg.WALDirs...)
	walDirs = append(walDirs, g.WALDir...)

	t := fstool.New(root,
		fstool.WithDetailLevel(detail),
		fstool.WithWALDirs(walDirs...),
		fstool.WithLogger(logger),
	)
	if err := t.Init(); err != nil {
		return err
	}
	defer t.Close()
	return fn(t)
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("fstool"),
		kong.Description("Read-only inspector for a tabletdb storage manager's on-disk layout."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&c.globals)
	ctx.FatalIfErrorf(err)
}
