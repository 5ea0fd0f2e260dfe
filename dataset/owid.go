// Package dataset loads the Our World in Data COVID-19 table and extracts
// per-location time series suitable for model calibration.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/popdyn-xyz/go-popdyn/calibrate"
)

// DefaultURL is the OWID compact COVID-19 dataset.
const DefaultURL = "https://covid.ourworldindata.org/data/owid-covid-data.csv"

const dateLayout = "2006-01-02"

// Record is one row of the table for one location and date. Missing numeric
// cells are NaN-free: absent values are simply skipped during extraction, so
// a Record only exists for rows that parsed.
type Record struct {
	Date              time.Time
	Location          string
	Population        float64
	TotalCases        float64
	TotalVaccinations float64
}

// Table holds parsed rows grouped by location, each group sorted by date.
type Table struct {
	byLocation map[string][]Record
}

// Fetch downloads the dataset with a single GET. No retries: a transient
// failure is reported to the caller, who decides whether to run again.
func Fetch(url string) (*Table, error) {
	if url == "" {
		url = DefaultURL
	}
	logrus.WithField("url", url).Info("fetching dataset")

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset: unexpected status %s", resp.Status)
	}
	return Parse(resp.Body)
}

// Load reads the dataset from a local CSV file.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the CSV stream. Only the columns we use are required; rows
// with an unparseable date or location are dropped.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"date", "location"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("dataset missing column %q", required)
		}
	}

	tbl := &Table{byLocation: map[string][]Record{}}
	rows, skipped := 0, 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows++

		date, err := time.Parse(dateLayout, field(row, col, "date"))
		if err != nil {
			skipped++
			continue
		}
		loc := field(row, col, "location")
		if loc == "" {
			skipped++
			continue
		}
		rec := Record{
			Date:              date,
			Location:          loc,
			Population:        number(row, col, "population"),
			TotalCases:        number(row, col, "total_cases"),
			TotalVaccinations: number(row, col, "total_vaccinations"),
		}
		tbl.byLocation[loc] = append(tbl.byLocation[loc], rec)
	}

	for loc := range tbl.byLocation {
		recs := tbl.byLocation[loc]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	}

	logrus.WithFields(logrus.Fields{
		"rows":      rows,
		"skipped":   skipped,
		"locations": len(tbl.byLocation),
	}).Info("dataset parsed")
	return tbl, nil
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// number returns 0 for absent or malformed cells. OWID leaves early-pandemic
// cells empty rather than writing zeros.
func number(row []string, col map[string]int, name string) float64 {
	s := field(row, col, name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Locations lists every location present, sorted.
func (t *Table) Locations() []string {
	names := make([]string, 0, len(t.byLocation))
	for loc := range t.byLocation {
		names = append(names, loc)
	}
	sort.Strings(names)
	return names
}

// Location returns the date-ordered records for one location.
func (t *Table) Location(name string) ([]Record, error) {
	recs, ok := t.byLocation[name]
	if !ok {
		return nil, fmt.Errorf("no data for location %q", name)
	}
	return recs, nil
}

// Series is a per-location extraction with times as day offsets from the
// first record.
type Series struct {
	Location          string
	Start             time.Time
	Population        float64
	Days              []float64
	TotalCases        []float64
	TotalVaccinations []float64
}

// Extract builds a Series for one location. Rows before the first nonzero
// total_cases value are trimmed so day 0 is the start of the outbreak.
func (t *Table) Extract(location string) (*Series, error) {
	recs, err := t.Location(location)
	if err != nil {
		return nil, err
	}

	first := 0
	for first < len(recs) && recs[first].TotalCases == 0 {
		first++
	}
	if first == len(recs) {
		return nil, fmt.Errorf("location %q has no case data", location)
	}
	recs = recs[first:]

	s := &Series{
		Location: location,
		Start:    recs[0].Date,
	}
	for _, rec := range recs {
		if rec.Population > 0 {
			s.Population = rec.Population
		}
		s.Days = append(s.Days, rec.Date.Sub(s.Start).Hours()/24)
		s.TotalCases = append(s.TotalCases, rec.TotalCases)
		s.TotalVaccinations = append(s.TotalVaccinations, rec.TotalVaccinations)
	}
	return s, nil
}

// EveryN keeps every n-th sample, thinning daily data to weekly and the
// like. n <= 1 returns the series unchanged.
func (s *Series) EveryN(n int) *Series {
	if n <= 1 {
		return s
	}
	out := &Series{Location: s.Location, Start: s.Start, Population: s.Population}
	for i := 0; i < len(s.Days); i += n {
		out.Days = append(out.Days, s.Days[i])
		out.TotalCases = append(out.TotalCases, s.TotalCases[i])
		out.TotalVaccinations = append(out.TotalVaccinations, s.TotalVaccinations[i])
	}
	return out
}

// Head truncates the series to its first n samples.
func (s *Series) Head(n int) *Series {
	if n >= len(s.Days) {
		return s
	}
	return &Series{
		Location:          s.Location,
		Start:             s.Start,
		Population:        s.Population,
		Days:              s.Days[:n],
		TotalCases:        s.TotalCases[:n],
		TotalVaccinations: s.TotalVaccinations[:n],
	}
}

// ToDataset converts the series into calibration observations. The
// cumulative case counts map onto a compartment label chosen by the caller
// (typically "I" fractions for SIR). If population is known the values are
// normalized to fractions so they match models run on a unit population.
func (s *Series) ToDataset(label string, normalize bool) (*calibrate.Dataset, error) {
	values := append([]float64(nil), s.TotalCases...)
	if normalize {
		if s.Population <= 0 {
			return nil, fmt.Errorf("location %q has no population for normalization", s.Location)
		}
		for i := range values {
			values[i] /= s.Population
		}
	}
	return calibrate.NewDataset(s.Days, map[string][]float64{label: values})
}
