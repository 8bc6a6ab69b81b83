// kgenealogic clusters GEDmatch DNA-match data into a predicted family-tree
// structure: init creates a project database, add imports GEDmatch export
// files into it, and cluster partitions the kits over a YAML configuration
// to produce a labeled-kit CSV report.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/johnwilmes/kgenealogic/cluster"
	"github.com/johnwilmes/kgenealogic/config"
	"github.com/johnwilmes/kgenealogic/graph"
	"github.com/johnwilmes/kgenealogic/ingest"
	"github.com/johnwilmes/kgenealogic/kit"
	"github.com/johnwilmes/kgenealogic/kitfile"
	"github.com/johnwilmes/kgenealogic/negative"
	"github.com/johnwilmes/kgenealogic/store"
)

const (
	defaultProject = "kgenealogic.db"
	defaultOutfile = "kg_results.csv"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s {init,add,cluster} [OPTIONS]\n", os.Args[0])
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if len(os.Args) < 2 {
		usage()
		log.Fatalf("missing subcommand")
	}
	sub, rest := os.Args[1], os.Args[2:]
	ctx := vcontext.Background()

	switch sub {
	case "init":
		runInit(ctx, rest)
	case "add":
		runAdd(ctx, rest)
	case "cluster":
		runCluster(ctx, rest)
	default:
		usage()
		log.Fatalf("unrecognized subcommand: %s", sub)
	}
}

func runInit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	project := fs.String("project", defaultProject, "Project file for storing processed genealogic data")
	force := fs.Bool("force", false, "Force reinitialization of an existing project file")
	fs.Parse(args)

	if _, err := os.Stat(*project); err == nil && !*force {
		log.Fatalf("project already exists: %s (use -force to reinitialize)", *project)
	}

	s, err := store.Open(*project)
	if err != nil {
		log.Fatalf("init: open project: %v", err)
	}
	defer s.Close()
	if err := s.Initialize(ctx); err != nil {
		log.Fatalf("init: initialize schema: %v", err)
	}
	log.Printf("initialized project %s", *project)
}

func runAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	project := fs.String("project", defaultProject, "Project file for storing processed genealogic data")
	source := fs.String("source", "", "For GEDmatch triangulation files, the source kit number that is triangulated")
	fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		log.Fatalf("add: no input files given")
	}

	s, err := store.Open(*project)
	if err != nil {
		log.Fatalf("add: open project: %v", err)
	}
	defer s.Close()

	for _, path := range files {
		switch {
		case kitfile.IsGedMatches(path):
			rows, err := kitfile.ReadGedMatches(path)
			if err != nil {
				log.Fatalf("add: read %s: %v", path, err)
			}
			if _, err := ingest.ImportMatches(ctx, s, rows); err != nil {
				log.Fatalf("add: import %s: %v", path, err)
			}
			log.Printf("imported %d match rows from %s", len(rows), path)
		case kitfile.IsGedTriangles(path):
			if *source == "" {
				log.Fatalf("add: -source required for GEDmatch triangulation file %s", path)
			}
			rows, err := kitfile.ReadGedTriangles(path, *source)
			if err != nil {
				log.Fatalf("add: read %s: %v", path, err)
			}
			if _, err := ingest.ImportTriangles(ctx, s, rows); err != nil {
				log.Fatalf("add: import %s: %v", path, err)
			}
			log.Printf("imported %d triangle rows from %s", len(rows), path)
		default:
			log.Printf("unrecognized file type: %s", path)
		}
	}
}

func runCluster(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("cluster", flag.ExitOnError)
	project := fs.String("project", defaultProject, "Project file for storing processed genealogic data")
	outfile := fs.String("outfile", defaultOutfile, "The destination for the output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatalf("cluster: exactly one configuration file argument required")
	}
	configPath := fs.Arg(0)

	data, err := os.ReadFile(configPath)
	if err != nil {
		log.Fatalf("cluster: read config: %v", err)
	}
	raw, err := config.Parse(data)
	if err != nil {
		log.Fatalf("cluster: parse config: %v", err)
	}

	s, err := store.Open(*project)
	if err != nil {
		log.Fatalf("cluster: open project: %v", err)
	}
	defer s.Close()

	resolved, err := config.Resolve(ctx, s.DB(), raw)
	if err != nil {
		log.Fatalf("cluster: resolve config: %v", err)
	}

	for _, seed := range resolved.Tree.Flatten() {
		if !seed.Negative {
			continue
		}
		if _, err := negative.Build(ctx, s, seed.Kit); err != nil {
			log.Fatalf("cluster: build negative triangulations: %v", err)
		}
	}

	g, err := graph.Build(ctx, s.DB(), resolved.MinLength, resolved.Exclude)
	if err != nil {
		log.Fatalf("cluster: build graph: %v", err)
	}

	minLength := resolved.MinLength
	negSource := cluster.NegativeSource(func(source kit.ID) (*graph.Graph, error) {
		return graph.NegativeEdges(ctx, s.DB(), source, minLength)
	})

	table, err := cluster.Run(resolved.Universe, resolved.Tree, g, negSource, cluster.Options{})
	if err != nil {
		log.Fatalf("cluster: run: %v", err)
	}

	kits, err := store.AllKits(ctx, s.DB())
	if err != nil {
		log.Fatalf("cluster: load kits: %v", err)
	}
	kitids := make(map[kit.ID]string, len(kits))
	for _, k := range kits {
		kitids[k.ID] = k.KitID
	}

	if err := writeResults(*outfile, table, kitids); err != nil {
		log.Fatalf("cluster: write results: %v", err)
	}
	log.Printf("wrote %d rows to %s", len(table), *outfile)
}

// writeResults renders a cluster.Table to a CSV file: kit (the external kit
// id), ahnentafel, seed, then a label<n>/confidence<n> pair for every depth
// the tree reaches.
func writeResults(path string, table cluster.Table, kitids map[kit.ID]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	maxDepth := table.MaxDepth()
	header := []string{"kit", "ahnentafel", "seed"}
	for d := 0; d <= maxDepth; d++ {
		header = append(header, fmt.Sprintf("label%d", d), fmt.Sprintf("confidence%d", d))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range table {
		rec := []string{
			kitids[row.Kit],
			formatOptionalInt64(row.Ahnentafel),
			formatOptionalInt64(row.Seed),
		}
		for d := 0; d <= maxDepth; d++ {
			rec = append(rec, string(row.Label(d)), strconv.FormatFloat(row.Confidence(d), 'f', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatOptionalInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
