package main

import (
	"fmt"

	"github.com/Faultbox/trench-diorama/internal/cache"
	"github.com/Faultbox/trench-diorama/internal/config"
)

func cmdExtents(args []string) error {
	fs := newFlagSet("extents")
	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, e := range config.Extents() {
		a := e.Area
		fmt.Printf("%-16s %-24s %.0fx%.0f km\n", e.Key, e.Name, a.Width()/1000, a.Height()/1000)
	}
	return nil
}

func cmdCache(args []string) error {
	fs := newFlagSet("cache")
	f := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: diorama cache clear|stats")
	}

	cfg, err := config.Load(f)
	if err != nil {
		return err
	}
	store, err := cache.Open(cfg.CachePath(), cache.Options{})
	if err != nil {
		return err
	}
	defer store.Close()

	switch fs.Arg(0) {
	case "clear":
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Printf("Cleared %s\n", cfg.CachePath())
	case "stats":
		stats, err := store.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("Cache: %s\n", cfg.CachePath())
		for _, bucket := range []string{"meshes", "textures", "tiles"} {
			fmt.Printf("  %-10s %d\n", bucket, stats[bucket])
		}
	default:
		return fmt.Errorf("unknown cache command %q", fs.Arg(0))
	}
	return nil
}
