// Command tfsctl is a one-shot, non-interactive front end for the TFS
// engine: one subcommand per engine operation. mkfs formats the container
// without mounting it; every other subcommand opens the container, mounts
// it, performs a single operation, and unmounts.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"

	"github.com/tfs-go/tfs/directory"
	"github.com/tfs-go/tfs/engine"
)

const (
	defaultContainerName = "TFSDiskFile"
	defaultTotalBytes    = 65535
	defaultBlockSize     = 128
)

var (
	containerFlag = &cli.StringFlag{
		Name:  "container",
		Value: defaultContainerName,
		Usage: "path to the container file",
	}
	totalBytesFlag = &cli.Int64Flag{
		Name:  "total-bytes",
		Value: defaultTotalBytes,
		Usage: "capacity of the container, in bytes",
	}
	blockSizeFlag = &cli.IntFlag{
		Name:  "block-size",
		Value: defaultBlockSize,
		Usage: "block size, in bytes",
	}
)

// entryRow is the CSV projection of a directory.FCB for `ls --csv`.
type entryRow struct {
	Name          string `csv:"name"`
	IsDir         bool   `csv:"is_dir"`
	StartingBlock int32  `csv:"starting_block"`
	SizeBytes     int32  `csv:"size_bytes"`
}

func withMountedEngine(c *cli.Context, fn func(*engine.Engine) (int, error)) error {
	e := engine.New()
	if err := e.Mount(c.String("container"), c.Int64("total-bytes"), uint32(c.Int("block-size"))); err != nil {
		return err
	}
	defer e.Unmount()

	status, err := fn(e)
	if err != nil {
		return err
	}
	if status != 0 {
		return cli.Exit(fmt.Sprintf("operation returned status %d", status), 1)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "tfsctl",
		Usage: "inspect and manipulate a TFS container from the command line",
		Flags: []cli.Flag{containerFlag, totalBytesFlag, blockSizeFlag},
		Commands: []*cli.Command{
			mkfsCommand,
			mkdirCommand,
			rmdirCommand,
			lsCommand,
			createCommand,
			rmCommand,
			appendCommand,
			printCommand,
			renameCommand,
			cpCommand,
			syncCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tfsctl:", err)
		os.Exit(1)
	}
}

var mkfsCommand = &cli.Command{
	Name:      "mkfs",
	Usage:     "format a new container",
	ArgsUsage: " ",
	Action: func(c *cli.Context) error {
		e := engine.New()
		return e.Mkfs(c.String("container"), c.Int64("total-bytes"), uint32(c.Int("block-size")))
	},
}

var mkdirCommand = &cli.Command{
	Name:      "mkdir",
	Usage:     "create a directory",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withMountedEngine(c, func(e *engine.Engine) (int, error) {
			return e.Mkdir(path)
		})
	},
}

var rmdirCommand = &cli.Command{
	Name:      "rmdir",
	Usage:     "remove an empty directory",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withMountedEngine(c, func(e *engine.Engine) (int, error) {
			return e.Rmdir(path)
		})
	},
}

var lsCommand = &cli.Command{
	Name:      "ls",
	Usage:     "list directory entries",
	ArgsUsage: "PATH",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "csv", Usage: "print entries as CSV instead of a plain table"},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			path = "/"
		}

		e := engine.New()
		if err := e.Mount(c.String("container"), c.Int64("total-bytes"), uint32(c.Int("block-size"))); err != nil {
			return err
		}
		defer e.Unmount()

		entries, err := e.Ls(path)
		if err != nil {
			return err
		}

		if c.Bool("csv") {
			return printEntriesCSV(entries)
		}
		printEntriesTable(entries)
		return nil
	},
}

func printEntriesCSV(entries []directory.FCB) error {
	rows := make([]*entryRow, len(entries))
	for i, entry := range entries {
		rows[i] = &entryRow{
			Name:          entry.Name,
			IsDir:         entry.IsDir,
			StartingBlock: entry.StartingBlock,
			SizeBytes:     entry.SizeBytes,
		}
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func printEntriesTable(entries []directory.FCB) {
	for _, entry := range entries {
		kind := "file"
		if entry.IsDir {
			kind = "dir"
		}
		fmt.Printf("%-15s %-4s block=%-6d size=%d\n", entry.Name, kind, entry.StartingBlock, entry.SizeBytes)
	}
}

var createCommand = &cli.Command{
	Name:      "create",
	Usage:     "create a zero-filled file of the given size",
	ArgsUsage: "PATH SIZE",
	Action: func(c *cli.Context) error {
		path := c.Args().Get(0)
		size, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
		if err != nil {
			return cli.Exit("SIZE must be an integer", 1)
		}

		e := engine.New()
		if err := e.Mount(c.String("container"), c.Int64("total-bytes"), uint32(c.Int("block-size"))); err != nil {
			return err
		}
		defer e.Unmount()

		l, err := e.Create(path, size)
		if err != nil {
			return err
		}
		if l < 0 {
			return cli.Exit(fmt.Sprintf("create returned status %d", l), 1)
		}
		fmt.Println(l)
		return nil
	},
}

var rmCommand = &cli.Command{
	Name:      "rm",
	Usage:     "remove a file",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withMountedEngine(c, func(e *engine.Engine) (int, error) {
			return e.Rm(path)
		})
	},
}

var appendCommand = &cli.Command{
	Name:      "append",
	Usage:     "append data to a file",
	ArgsUsage: "PATH DATA",
	Action: func(c *cli.Context) error {
		path := c.Args().Get(0)
		data := c.Args().Get(1)
		return withMountedEngine(c, func(e *engine.Engine) (int, error) {
			return e.Append(path, []byte(data))
		})
	},
}

var printCommand = &cli.Command{
	Name:      "print",
	Usage:     "print a byte range from a file",
	ArgsUsage: "PATH POSITION N",
	Action: func(c *cli.Context) error {
		path := c.Args().Get(0)
		position, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
		if err != nil {
			return cli.Exit("POSITION must be an integer", 1)
		}
		n, err := strconv.ParseInt(c.Args().Get(2), 10, 64)
		if err != nil {
			return cli.Exit("N must be an integer", 1)
		}

		e := engine.New()
		if err := e.Mount(c.String("container"), c.Int64("total-bytes"), uint32(c.Int("block-size"))); err != nil {
			return err
		}
		defer e.Unmount()

		text, err := e.Print(path, position, n)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var renameCommand = &cli.Command{
	Name:      "rename",
	Usage:     "rename a file",
	ArgsUsage: "PATH NEWNAME",
	Action: func(c *cli.Context) error {
		path := c.Args().Get(0)
		newName := c.Args().Get(1)
		return withMountedEngine(c, func(e *engine.Engine) (int, error) {
			return e.Rename(path, newName)
		})
	},
}

var cpCommand = &cli.Command{
	Name:      "cp",
	Usage:     "copy a file",
	ArgsUsage: "SRC DST",
	Action: func(c *cli.Context) error {
		src := c.Args().Get(0)
		dst := c.Args().Get(1)
		return withMountedEngine(c, func(e *engine.Engine) (int, error) {
			return e.Cp(src, dst)
		})
	},
}

var syncCommand = &cli.Command{
	Name:  "sync",
	Usage: "flush the PCB and FAT to disk without unmounting first",
	Action: func(c *cli.Context) error {
		e := engine.New()
		if err := e.Mount(c.String("container"), c.Int64("total-bytes"), uint32(c.Int("block-size"))); err != nil {
			return err
		}
		defer e.Unmount()
		return e.Sync()
	},
}
