// Package kitfile recognizes and parses the pairwise-match and one-to-many
// triangulation CSV exports GEDmatch produces, converting each into the
// ingest.MatchRow/ingest.TriangleRow shape the ingest package expects.
package kitfile

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"

	"github.com/johnwilmes/kgenealogic/ingest"
)

// gedMatchCols are the header columns a GEDmatch pairwise-matches export
// must carry.
var gedMatchCols = []string{
	"PrimaryKit", "MatchedKit", "chr", "B37Start", "B37End",
	"Segment cM", "MatchedName", "Matched Sex", "MatchedEmail",
}

// gedTriangleCols are the header columns a GEDmatch triangulation export
// must carry. The source kit itself never appears in the file; the first
// two kit columns are the two triangulated targets.
var gedTriangleCols = []string{
	"Kit1 Number", "Kit1 Name", "Kit1 Email",
	"Kit2 Number", "Kit2 Name", "Kit2 Email",
	"Chr", "B37 Start", "B37 End", "cM",
}

// IsGedMatches reports whether path's header row contains every column a
// GEDmatch pairwise-matches export carries.
func IsGedMatches(path string) bool {
	header, err := readHeader(path)
	if err != nil {
		return false
	}
	return hasAll(header, gedMatchCols)
}

// IsGedTriangles reports whether path's header row contains every column a
// GEDmatch triangulation export carries.
func IsGedTriangles(path string) bool {
	header, err := readHeader(path)
	if err != nil {
		return false
	}
	return hasAll(header, gedTriangleCols)
}

// ReadGedMatches parses a GEDmatch pairwise-matches export into
// ingest.MatchRow values, ready for ingest.ImportMatches.
func ReadGedMatches(path string) ([]ingest.MatchRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "kitfile: open ged matches file")
	}
	defer f.Close()

	idx, records, err := readCSV(f, gedMatchCols)
	if err != nil {
		return nil, err
	}

	rows := make([]ingest.MatchRow, 0, len(records))
	for _, rec := range records {
		start, err := strconv.ParseInt(rec[idx["B37Start"]], 10, 64)
		if err != nil {
			return nil, errors.E(err, "kitfile: parse B37Start")
		}
		end, err := strconv.ParseInt(rec[idx["B37End"]], 10, 64)
		if err != nil {
			return nil, errors.E(err, "kitfile: parse B37End")
		}
		row := ingest.MatchRow{
			Kit1:       rec[idx["PrimaryKit"]],
			Kit2:       rec[idx["MatchedKit"]],
			Chromosome: rec[idx["chr"]],
			Start:      start,
			End:        end,
		}
		if length, ok := parseOptionalFloat(rec[idx["Segment cM"]]); ok {
			row.Length = &length
		}
		row.Name = optionalString(rec[idx["MatchedName"]])
		row.Sex = optionalString(rec[idx["Matched Sex"]])
		row.Email = optionalString(rec[idx["MatchedEmail"]])
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadGedTriangles parses a GEDmatch one-to-many triangulation export into
// ingest.TriangleRow values with kit1 fixed to primaryKit, the kit the
// triangulation report was generated from.
func ReadGedTriangles(path, primaryKit string) ([]ingest.TriangleRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "kitfile: open ged triangles file")
	}
	defer f.Close()

	idx, records, err := readCSV(f, gedTriangleCols)
	if err != nil {
		return nil, err
	}

	rows := make([]ingest.TriangleRow, 0, len(records))
	for _, rec := range records {
		start, err := strconv.ParseInt(rec[idx["B37 Start"]], 10, 64)
		if err != nil {
			return nil, errors.E(err, "kitfile: parse B37 Start")
		}
		end, err := strconv.ParseInt(rec[idx["B37 End"]], 10, 64)
		if err != nil {
			return nil, errors.E(err, "kitfile: parse B37 End")
		}
		row := ingest.TriangleRow{
			Kit1:       primaryKit,
			Kit2:       rec[idx["Kit1 Number"]],
			Kit3:       rec[idx["Kit2 Number"]],
			Chromosome: rec[idx["Chr"]],
			Start:      start,
			End:        end,
		}
		if length, ok := parseOptionalFloat(rec[idx["cM"]]); ok {
			row.Length = &length
		}
		row.Name2 = optionalString(rec[idx["Kit1 Name"]])
		row.Email2 = optionalString(rec[idx["Kit1 Email"]])
		row.Name3 = optionalString(rec[idx["Kit2 Name"]])
		row.Email3 = optionalString(rec[idx["Kit2 Email"]])
		rows = append(rows, row)
	}
	return rows, nil
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.Read()
}

func hasAll(header, required []string) bool {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	for _, col := range required {
		if !have[col] {
			return false
		}
	}
	return true
}

// readCSV reads r's header and every data row, returning a column-name to
// index map restricted to required, and the raw records.
func readCSV(r io.Reader, required []string) (map[string]int, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.E(err, "kitfile: read header")
	}
	idx := make(map[string]int, len(required))
	have := make(map[string]int, len(header))
	for i, h := range header {
		have[h] = i
	}
	for _, col := range required {
		i, ok := have[col]
		if !ok {
			return nil, nil, errors.New("kitfile: missing required column " + col)
		}
		idx[col] = i
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.E(err, "kitfile: read row")
		}
		records = append(records, rec)
	}
	return idx, records, nil
}

func parseOptionalFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	v := s
	return &v
}
