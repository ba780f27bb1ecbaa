package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// Layout names the rule family that produced a result.
const (
	LayoutTable = "table"
	LayoutBlock = "block"
)

// Result is the output of ParseRows.
type Result struct {
	Rows      []domain.RawRow
	Skipped   int
	Layout    string
	PeriodEnd domain.Date
}

var (
	leadingCode = regexp.MustCompile(`^([A-Z]{1,3}\d{1,3})(?:\s+(.*))?$`)
	pairCell    = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s*[-–—:]?\s*(\S.*)$`)
	periodRe    = regexp.MustCompile(`(?i)per[ií]odo\s+de\s+(\d{2}/\d{2}/\d{4})\s+a\s+(\d{2}/\d{2}/\d{4})`)

	blockStart     = regexp.MustCompile(`(?m)^\s*([A-Z]{1,3}\d{1,3})\b`)
	blockBeach     = regexp.MustCompile(`(?im)Praia\s*:\s*(.+?)\s*(?:(?:Ponto\s+de\s+)?Refer[eê]ncia\s*:|Ref\.\s*:|Data(?:\s+da\s+coleta)?\s*:|Status\s*:|$)`)
	blockReference = regexp.MustCompile(`(?im)(?:Ponto\s+de\s+refer[eê]ncia|Refer[eê]ncia|Ref\.)\s*:\s*(.+?)\s*(?:Data(?:\s+da\s+coleta)?\s*:|Status\s*:|$)`)
	blockDate      = regexp.MustCompile(`(?i)Data(?:\s+da\s+coleta)?\s*:\s*(\d{2}/\d{2}/\d{4})`)
	blockStatus    = regexp.MustCompile(`(?i)Status\s*:\s*([\pL"'“”]+)`)
	blockSeries    = regexp.MustCompile(`(?i)(\d{2}/\d{2}/\d{4})\s*[-–—]\s*(IMPR[ÓO]?PRIO|PR[ÓO]PRIO)`)
)

// ParseRows applies the report layout rules to extracted pages. Table rows
// start with a station code cell and carry either inline date/status pairs,
// one status per date column of the page header, or a single status dated by
// the report period. When no table row is found anywhere, the text is
// scanned for "Pxx Praia: ... Status: ..." blocks instead. Rows that start
// with a code but fit no rule are counted in Skipped.
func ParseRows(pages []Page) Result {
	res := Result{Layout: LayoutTable, PeriodEnd: findPeriodEnd(pages)}

	for _, page := range pages {
		var header []domain.Date
		for _, line := range page.Lines {
			code, rest := splitCode(line)
			if code == "" {
				if periodRe.MatchString(strings.Join(line, " ")) {
					continue
				}
				if dates := headerDates(line); len(dates) > 0 {
					header = dates
				}
				continue
			}
			rows, ok := parseTableRow(code, rest, header, res.PeriodEnd)
			if !ok {
				res.Skipped++
				continue
			}
			for i := range rows {
				rows[i].Page = page.Number
			}
			res.Rows = append(res.Rows, rows...)
		}
	}

	if len(res.Rows) == 0 {
		res.Layout = LayoutBlock
		res.Rows, res.Skipped = parseBlocks(pages, res.PeriodEnd)
	}
	return res
}

func splitCode(line Line) (string, []string) {
	if len(line) == 0 {
		return "", nil
	}
	m := leadingCode.FindStringSubmatch(strings.TrimSpace(line[0]))
	if m == nil {
		return "", nil
	}
	rest := make([]string, 0, len(line))
	if m[2] != "" {
		rest = append(rest, m[2])
	}
	return m[1], append(rest, line[1:]...)
}

func headerDates(line Line) []domain.Date {
	var dates []domain.Date
	for _, cell := range line {
		if d, ok := dateCell(cell); ok {
			dates = append(dates, d)
		}
	}
	return dates
}

func dateCell(cell string) (domain.Date, bool) {
	d, err := domain.ParseDate(cell)
	if err != nil {
		return domain.Date{}, false
	}
	return d, true
}

func parseTableRow(code string, rest []string, header []domain.Date, periodEnd domain.Date) ([]domain.RawRow, bool) {
	first := -1
	for i, cell := range rest {
		if _, ok := dateCell(cell); ok || pairCell.MatchString(cell) {
			first = i
			break
		}
	}

	switch {
	case first >= 0:
		return inlineRows(code, rest[:first], rest[first:])
	case len(header) > 0:
		// beach and reference, then one status per header date
		if len(rest) < len(header)+2 {
			return nil, false
		}
		desc := rest[:len(rest)-len(header)]
		statuses := rest[len(rest)-len(header):]
		rows := make([]domain.RawRow, 0, len(header))
		for i, d := range header {
			if descriptive(statuses[i]) {
				return nil, false
			}
			rows = append(rows, newRow(code, desc, d, statuses[i]))
		}
		return rows, true
	case !periodEnd.IsZero() && len(rest) >= 2:
		status := rest[len(rest)-1]
		if domain.NormalizeStatus(status) == domain.StatusUnknown {
			return nil, false
		}
		return []domain.RawRow{newRow(code, rest[:len(rest)-1], periodEnd, status)}, true
	}
	return nil, false
}

// inlineRows reads date/status pairs. A pair is either a date cell followed
// by status cells, or a single "dd/mm/yyyy - STATUS" cell.
func inlineRows(code string, desc, cells []string) ([]domain.RawRow, bool) {
	var rows []domain.RawRow
	for i := 0; i < len(cells); {
		cell := cells[i]
		if d, ok := dateCell(cell); ok {
			j := i + 1
			var status []string
			for j < len(cells) {
				if _, isDate := dateCell(cells[j]); isDate || pairCell.MatchString(cells[j]) {
					break
				}
				status = append(status, cells[j])
				j++
			}
			if len(status) > 0 {
				rows = append(rows, newRow(code, desc, d, strings.Join(status, " ")))
			}
			i = j
			continue
		}
		if m := pairCell.FindStringSubmatch(cell); m != nil {
			if d, ok := dateCell(m[1]); ok {
				rows = append(rows, newRow(code, desc, d, m[2]))
			}
		}
		i++
	}
	return rows, len(rows) > 0
}

// descriptive reports whether a cell in a status position is text that is
// not a status, such as a beach name shifted over by a missing column.
// Short placeholders like "-" or "NC" are accepted as unknown statuses.
func descriptive(cell string) bool {
	if domain.NormalizeStatus(cell) != domain.StatusUnknown {
		return false
	}
	letters := 0
	for _, r := range cell {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters > 3
}

func newRow(code string, desc []string, date domain.Date, status string) domain.RawRow {
	row := domain.RawRow{Code: code, Date: date, RawStatus: strings.TrimSpace(status)}
	if len(desc) > 0 {
		row.Beach = strings.TrimSpace(desc[0])
		row.Reference = strings.TrimSpace(strings.Join(desc[1:], " "))
	}
	return row
}

func findPeriodEnd(pages []Page) domain.Date {
	var b strings.Builder
	for _, p := range pages {
		for _, l := range p.Lines {
			b.WriteString(strings.Join(l, " "))
			b.WriteByte(' ')
		}
	}
	m := periodRe.FindStringSubmatch(b.String())
	if m == nil {
		return domain.Date{}
	}
	d, err := domain.ParseDate(m[2])
	if err != nil {
		return domain.Date{}
	}
	return d
}

func parseBlocks(pages []Page, periodEnd domain.Date) ([]domain.RawRow, int) {
	var b strings.Builder
	type pageStart struct{ offset, number int }
	var starts []pageStart
	for _, p := range pages {
		starts = append(starts, pageStart{offset: b.Len(), number: p.Number})
		for _, l := range p.Lines {
			b.WriteString(strings.Join(l, " "))
			b.WriteByte('\n')
		}
	}
	text := b.String()
	pageAt := func(offset int) int {
		n := 0
		for _, s := range starts {
			if s.offset <= offset {
				n = s.number
			}
		}
		return n
	}

	var rows []domain.RawRow
	skipped := 0
	idx := blockStart.FindAllStringSubmatchIndex(text, -1)
	for i, m := range idx {
		end := len(text)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		code := text[m[2]:m[3]]
		block := text[m[3]:end]

		row := domain.RawRow{Code: code, Page: pageAt(m[0])}
		if bm := blockBeach.FindStringSubmatch(block); bm != nil {
			row.Beach = strings.Trim(bm[1], " :-")
		}
		if rm := blockReference.FindStringSubmatch(block); rm != nil {
			row.Reference = strings.Trim(rm[1], " :-")
		}
		row.Date = periodEnd
		if dm := blockDate.FindStringSubmatch(block); dm != nil {
			if d, ok := dateCell(dm[1]); ok {
				row.Date = d
			}
		}
		if sm := blockStatus.FindStringSubmatch(block); sm != nil {
			row.RawStatus = sm[1]
		}

		if row.RawStatus == "" || row.Date.IsZero() {
			skipped++
		} else {
			rows = append(rows, row)
		}

		for _, sm := range blockSeries.FindAllStringSubmatch(block, -1) {
			d, ok := dateCell(sm[1])
			if !ok {
				continue
			}
			extra := row
			extra.Date, extra.RawStatus = d, sm[2]
			rows = append(rows, extra)
		}
	}
	return rows, skipped
}
