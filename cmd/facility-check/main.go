// Command facility-check validates a facility layout file and prints each
// revision's locations.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/mr1hm/thirdeye/internal/facility"
	"github.com/mr1hm/thirdeye/internal/logging"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("file", os.Getenv("FACILITY_FILE"), "facility layout file (empty checks the built-in layouts)")
	only := flag.String("revision", "", "check a single revision")
	flag.Parse()

	logging.Setup("info", "text")

	f := facility.Builtin()
	if *path != "" {
		var err error
		if f, err = facility.LoadFile(*path); err != nil {
			logging.Fatalf("Fatal while loading %s: %v", *path, err)
		}
	}

	names := f.Names()
	if *only != "" {
		names = []string{*only}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	failed := false
	for _, name := range names {
		c, err := f.Catalog(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed = true
			continue
		}

		fmt.Fprintf(w, "revision %s\n", c.Name())
		fmt.Fprintln(w, "LOCATION\tTYPE\tX\tY")
		for _, loc := range c.Locations() {
			x, y := "-", "-"
			if p, ok := c.Position(loc); ok {
				x, y = fmt.Sprint(p.X), fmt.Sprint(p.Y)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", loc, c.LocationType(loc), x, y)
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	if failed {
		os.Exit(1)
	}
}
