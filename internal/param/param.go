package param

import (
	"bufio"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"apidiff/internal/config"
	"apidiff/internal/model"
)

// Group is a set of parameters whose values advance together: a single
// literal/list parameter, or every column drawn from the same tabular file
// (row-aligned). Rows[i][j] holds the value of Names[j] in row i.
type Group struct {
	Names []string
	Rows  [][]string
}

// ResolveGroups turns the configured parameter specs into value groups.
// Column parameters naming the same file merge into one row-aligned group;
// everything else becomes an independent group of its own.
func ResolveGroups(params []config.ParamSpec, baseDir string) ([]Group, error) {
	var groups []Group
	fileGroup := make(map[string]int) // file -> index into groups

	for _, p := range params {
		switch {
		case p.Value != "":
			groups = append(groups, singleColumn(p.Name, []string{p.Value}))
		case len(p.Values) > 0:
			groups = append(groups, singleColumn(p.Name, p.Values))
		case p.File != "":
			path := filepath.Join(baseDir, p.File)
			values, err := readSource(path, p.Column)
			if err != nil {
				return nil, err
			}
			if p.Column == "" {
				// Line files never row-align; identical lists would pair
				// with themselves and add nothing.
				groups = append(groups, singleColumn(p.Name, values))
				continue
			}
			idx, ok := fileGroup[p.File]
			if !ok {
				fileGroup[p.File] = len(groups)
				groups = append(groups, singleColumn(p.Name, values))
				continue
			}
			g := &groups[idx]
			if len(values) != len(g.Rows) {
				return nil, config.Errorf("column %q of %s has %d rows, %s has %d; row-aligned columns must match",
					p.Column, p.File, len(values), strings.Join(g.Names, ","), len(g.Rows))
			}
			g.Names = append(g.Names, p.Name)
			for i := range g.Rows {
				g.Rows[i] = append(g.Rows[i], values[i])
			}
		default:
			return nil, config.Errorf("parameter %q has no value source", p.Name)
		}
	}
	return groups, nil
}

// BuildCases enumerates the cross-product of the groups, rightmost group
// varying fastest. Zero groups yield exactly one empty case; a group with no
// rows empties the whole product.
func BuildCases(groups []Group) []model.Case {
	total := 1
	for _, g := range groups {
		total *= len(g.Rows)
	}
	if total == 0 {
		return nil
	}

	cases := make([]model.Case, 0, total)
	idx := make([]int, len(groups))
	for {
		c := make(model.Case)
		for gi, g := range groups {
			row := g.Rows[idx[gi]]
			for j, name := range g.Names {
				c[name] = row[j]
			}
		}
		cases = append(cases, c)

		gi := len(groups) - 1
		for ; gi >= 0; gi-- {
			idx[gi]++
			if idx[gi] < len(groups[gi].Rows) {
				break
			}
			idx[gi] = 0
		}
		if gi < 0 {
			return cases
		}
	}
}

func singleColumn(name string, values []string) Group {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return Group{Names: []string{name}, Rows: rows}
}

// readSource extracts one column of a tabular file (.xlsx or delimited
// text), or the whole file as trimmed, de-duplicated lines when column is
// empty. Row order is preserved.
func readSource(path, column string) ([]string, error) {
	if column == "" {
		return readLines(path)
	}

	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readExcel(path)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, config.Errorf("parameter source %s is empty", path)
	}

	col := -1
	for i, name := range rows[0] {
		if strings.TrimSpace(name) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, config.Errorf("parameter source %s has no column %q", path, column)
	}

	values := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		v := ""
		if col < len(row) {
			v = row[col]
		}
		values = append(values, v)
	}
	return values, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, config.Errorf("cannot open parameter source %s: %v", path, err)
	}
	defer f.Close()

	var values []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		values = append(values, line)
	}
	if err := sc.Err(); err != nil {
		return nil, config.Errorf("cannot read parameter source %s: %v", path, err)
	}
	return values, nil
}

func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, config.Errorf("cannot open parameter source %s: %v", path, err)
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comma = sniffDelimiter(string(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, config.Errorf("cannot parse parameter source %s: %v", path, err)
	}
	return rows, nil
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, config.Errorf("cannot open parameter source %s: %v", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, config.Errorf("parameter source %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, config.Errorf("cannot read parameter source %s: %v", path, err)
	}
	return rows, nil
}

// sniffDelimiter picks the separator with the most hits in the first line,
// defaulting to a comma.
func sniffDelimiter(data string) rune {
	line := data
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, count := ',', strings.Count(line, ",")
	for _, cand := range []rune{';', '\t'} {
		if n := strings.Count(line, string(cand)); n > count {
			best, count = cand, n
		}
	}
	return best
}
