package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"library-circulation/library"
)

// check_catalog validates catalog files and prints what a simulation would
// start with.
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run checks every path and returns the process exit code.
func run(paths []string, stdout, stderr io.Writer) int {
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "usage: check_catalog <catalog.yaml>...")
		return 2
	}

	errorCount := 0
	for _, path := range paths {
		if err := checkCatalog(stdout, path); err != nil {
			fmt.Fprintf(stdout, "ERROR - %s: %v\n", path, err)
			errorCount++
		}
	}
	if errorCount > 0 {
		return 1
	}
	return 0
}

func checkCatalog(w io.Writer, path string) error {
	fmt.Fprintf(w, "Checking %s...\n", path)

	c, err := library.ReadCatalogFile(path)
	if err != nil {
		return err
	}
	lib := library.New()
	if err := c.Load(lib); err != nil {
		return err
	}

	items := lib.Items()
	counts := map[library.Kind]int{}
	for _, it := range items {
		counts[it.Kind()]++
	}
	fmt.Fprintf(w, "%d item(s): %d book(s), %d album(s), %d movie(s); %d patron(s)\n",
		len(items), counts[library.KindBook], counts[library.KindAlbum], counts[library.KindMovie], len(lib.Patrons()))

	if len(items) > 0 {
		fmt.Fprintf(w, "\n%-8s %-6s %-40s %-30s %s\n", "ID", "Kind", "Title", "Creator", "Loan")
		fmt.Fprintln(w, strings.Repeat("-", 95))
		for _, it := range items {
			fmt.Fprintf(w, "%-8s %-6s %-40s %-30s %d days\n",
				it.ID(), it.Kind(), library.Truncate(it.Title(), 40), library.Truncate(it.Creator(), 30), it.CheckOutLength())
		}
	}
	if patrons := lib.Patrons(); len(patrons) > 0 {
		fmt.Fprintf(w, "\n%-8s %-30s %s\n", "ID", "Name", "PIN")
		fmt.Fprintln(w, strings.Repeat("-", 45))
		for _, p := range patrons {
			pin := "No"
			if p.HasPIN() {
				pin = "Yes"
			}
			fmt.Fprintf(w, "%-8s %-30s %s\n", p.ID(), library.Truncate(p.Name(), 30), pin)
		}
	}
	fmt.Fprintln(w)
	return nil
}
