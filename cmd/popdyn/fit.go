package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/popdyn-xyz/go-popdyn/calibrate"
	"github.com/popdyn-xyz/go-popdyn/dataset"
)

func fit(args []string) error {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	rf := addRunFlags(fs)
	dataFile := fs.String("data", "", "Observation CSV (columns: time,value)")
	owidFile := fs.String("owid", "", "Local Our World in Data CSV to fit against")
	location := fs.String("location", "", "Location to extract from the OWID table")
	compartment := fs.String("compartment", "I", "Compartment the observations measure")
	free := fs.String("free", "", "Comma-separated free parameters (default: all)")
	optMethod := fs.String("optimizer", "gradient-descent", "Optimizer (gradient-descent, nelder-mead, coordinate-descent)")
	loss := fs.String("loss", "mse", "Loss function (mse, rmse, relative)")
	iters := fs.Int("iters", 500, "Maximum optimizer iterations")
	verbose := fs.Bool("verbose", false, "Log optimizer progress")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: popdyn fit [options]

Calibrate model parameters against observed data.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Fit SIR infection and recovery rates to a time,value CSV
  popdyn fit -model sir -data observed.csv -free r,a

  # Fit against OWID case fractions for one country
  popdyn fit -model sir -owid owid-covid-data.csv -location "New Zealand" -free r,a
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	m, prob, method, opts, _, err := rf.resolve()
	if err != nil {
		return err
	}

	var data *calibrate.Dataset
	switch {
	case *dataFile != "":
		data, err = loadObservationCSV(*dataFile, *compartment)
		if err != nil {
			return err
		}
	case *owidFile != "":
		if *location == "" {
			return fmt.Errorf("-location required with -owid")
		}
		tbl, err := dataset.Load(*owidFile)
		if err != nil {
			return err
		}
		series, err := tbl.Extract(*location)
		if err != nil {
			return err
		}
		data, err = series.EveryN(7).ToDataset(*compartment, true)
		if err != nil {
			return err
		}
	default:
		fs.Usage()
		return fmt.Errorf("-data or -owid required")
	}

	var freeNames []string
	if *free != "" {
		for _, name := range strings.Split(*free, ",") {
			freeNames = append(freeNames, strings.TrimSpace(name))
		}
	} else {
		for _, p := range m.Params {
			freeNames = append(freeNames, p.Name)
		}
	}

	lossFunc, err := lossByName(*loss)
	if err != nil {
		return err
	}

	fitProb, err := calibrate.NewProblem(m, prob.U0, prob.Tspan, prob.Params, freeNames)
	if err != nil {
		return err
	}

	fitOpts := calibrate.DefaultFitOptions()
	fitOpts.Method = *optMethod
	fitOpts.MaxIters = *iters
	fitOpts.Verbose = *verbose
	fitOpts.SolverMethod = method
	fitOpts.SolverOptions = opts

	fmt.Printf("Fitting %s to %d observations (%s, %s)\n",
		m.Name, len(data.Times), *optMethod, *loss)

	start := time.Now()
	result, err := calibrate.Fit(fitProb, data, lossFunc, fitOpts)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("\nConverged: %v in %d iterations (%v)\n",
		result.Converged, result.Iterations, elapsed.Round(time.Millisecond))
	fmt.Printf("Loss: %.6g -> %.6g\n", result.InitialLoss, result.FinalLoss)
	fmt.Println("\nFitted parameters:")
	for i, p := range m.Params {
		marker := ""
		for _, name := range freeNames {
			if name == p.Name {
				marker = " *"
			}
		}
		fmt.Printf("  %-4s = %.6g%s\n", p.Name, result.Params[i], marker)
	}
	return nil
}

func lossByName(name string) (calibrate.LossFunc, error) {
	switch name {
	case "mse":
		return calibrate.MSELoss, nil
	case "rmse":
		return calibrate.RMSELoss, nil
	case "relative":
		return calibrate.RelativeMSELoss, nil
	}
	return nil, fmt.Errorf("unknown loss %q", name)
}

// loadObservationCSV reads a two-column time,value file. A non-numeric first
// row is treated as a header and skipped.
func loadObservationCSV(path, label string) (*calibrate.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	var times, values []float64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("row %v: expected time,value", row)
		}
		t, terr := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		v, verr := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if terr != nil || verr != nil {
			if len(times) == 0 {
				continue // header
			}
			return nil, fmt.Errorf("row %v: bad number", row)
		}
		times = append(times, t)
		values = append(values, v)
	}

	return calibrate.NewDataset(times, map[string][]float64{label: values})
}
