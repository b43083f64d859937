// diorama builds ocean trench terrain dioramas from elevation data and
// writes them out as OBJ scenes with PNG textures.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch command {
	case "build", "b":
		err = cmdBuild(ctx, args)
	case "hillshade", "hs":
		err = cmdHillshade(ctx, args)
	case "extents", "ls":
		err = cmdExtents(args)
	case "cache":
		err = cmdCache(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`diorama - ocean trench terrain diorama builder

Usage:
  diorama <command> [options]

Commands:
  build [extent...]            Build dioramas and export OBJ + textures
  hillshade [extent]           Write a hillshade PNG of a source extent
  extents                      List named source extents
  cache clear|stats            Manage the mesh and elevation tile cache

Common options:
  -config <file>               Config file (default ./diorama.yaml)
  -debug                       Enable debug logging
  -shading <mode>              none, hillshade, multi-hillshade, normals
  -exaggeration <strategy>     range-remap, multiply
  -mesh <n> -texture <n>       Mesh and color texture resolutions
  -no-cache                    Skip the cache
  -o <dir>                     Output directory

Examples:
  diorama extents
  diorama build mariana java
  diorama build -shading normals -mesh 128 puerto-rico
  diorama hillshade -multi -o renders molloy-hole
  diorama cache clear`)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: diorama %s [options]\n", name)
		fs.PrintDefaults()
	}
	return fs
}
