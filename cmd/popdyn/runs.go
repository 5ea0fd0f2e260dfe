package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/popdyn-xyz/go-popdyn/results"
	"github.com/popdyn-xyz/go-popdyn/store"
)

func runs(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "runs.db", "Runs database path")
	limit := fs.Int("limit", 20, "Maximum runs to list")
	modelName := fs.String("model", "", "Only list runs of this model")
	show := fs.String("show", "", "Print the full results JSON of one run")
	remove := fs.String("delete", "", "Delete one run by id")
	pruneDays := fs.Int("prune", 0, "Delete runs older than this many days")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn runs [options]

List, show, and prune archived runs.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  popdyn runs -db runs.db
  popdyn runs -db runs.db -model sir -limit 5
  popdyn runs -db runs.db -show 2f1c...
  popdyn runs -db runs.db -prune 30
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case *show != "":
		res, err := db.Get(*show)
		if err != nil {
			return err
		}
		doc, err := results.ToJSON(res)
		if err != nil {
			return err
		}
		fmt.Println(doc)
		return nil

	case *remove != "":
		if err := db.Delete(*remove); err != nil {
			return err
		}
		fmt.Printf("Run %s deleted\n", *remove)
		return nil

	case *pruneDays > 0:
		cutoff := time.Now().AddDate(0, 0, -*pruneDays)
		n, err := db.Prune(cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d runs older than %s\n", n, cutoff.Format("2006-01-02"))
		return nil
	}

	var list []*store.Run
	if *modelName != "" {
		list, err = db.ByModel(*modelName, *limit)
	} else {
		list, err = db.Recent(*limit)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No archived runs")
		return nil
	}

	fmt.Printf("%-36s  %-14s  %-8s  %-8s  %-19s  %s\n",
		"ID", "MODEL", "METHOD", "STATUS", "TIMESTAMP", "T_FINAL")
	for _, r := range list {
		fmt.Printf("%-36s  %-14s  %-8s  %-8s  %-19s  %.1f\n",
			r.ID, r.Model, r.Method, r.Status,
			r.Timestamp.Format("2006-01-02 15:04:05"), r.FinalTime)
	}
	return nil
}
