// File: internal/portal/extract.go
package portal

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Result page selectors, per query type. The portal renders each query's
// outcome with different markup generations, so every spec names its own
// readiness cell and table root.
var (
	chassisTable = TableSpec{
		ReadySelector:   `#form1 > div:nth-child(5) > table > tbody > tr > td:nth-child(1)`,
		SummarySelector: `#form1 > div:nth-child(5) > table > tbody > tr > td:nth-child(1)`,
		TableSelector:   `#form1 > div:nth-child(6) > table`,
	}

	binTable = TableSpec{
		BannerSelector: `#form1 > div.alert.alert-danger.alert-dismissible.show`,
		ReadySelector:  `#form1 > div.card > div > table > tbody > tr:nth-child(1) > td:nth-child(1)`,
		TableSelector:  `#form1 > div.card > div > table`,
	}

	vehiclesTable = TableSpec{
		ReadySelector: `#form1 > div.table-responsive.mt-3 > table > tbody > tr:nth-child(1) > td:nth-child(1)`,
		TableSelector: `#form1 > div.table-responsive.mt-3 > table`,
		RowPerRecord:  true,
		SkipHeaderRow: true,
	}
)

// TableSpec describes how to classify and read one query type's result page.
type TableSpec struct {
	// BannerSelector matches the portal's "no data" banner, when the query
	// type has one.
	BannerSelector string
	// ReadySelector signals that the result table has rendered.
	ReadySelector string
	// SummarySelector, when set, names a summary line above the table whose
	// first and last tokens are kept as the chassis_information field.
	SummarySelector string
	// TableSelector is the table root to extract.
	TableSelector string
	// RowPerRecord produces one record per table row instead of folding the
	// whole table into a single record.
	RowPerRecord bool
	// SkipHeaderRow drops the first row in RowPerRecord mode.
	SkipHeaderRow bool
}

// Extractor classifies a submitted query's result page and converts its
// table into records.
type Extractor struct {
	logger        *zap.Logger
	bannerTimeout time.Duration
	tableTimeout  time.Duration
}

// NewExtractor creates an Extractor with the configured wait bounds.
func NewExtractor(logger *zap.Logger, bannerTimeout, tableTimeout time.Duration) *Extractor {
	return &Extractor{
		logger:        logger.Named("extractor"),
		bannerTimeout: bannerTimeout,
		tableTimeout:  tableTimeout,
	}
}

// ClassifyAndExtract waits for the result page to declare itself, then reads
// the table in a single pass.
//
// The banner check is a bounded race: the banner is only polled for during
// its window, the table for the full table timeout. A deadline reached with
// neither signal present is an extraction failure, never an empty success.
// Returns ErrNoData when the portal affirmatively reports no matching record.
func (e *Extractor) ClassifyAndExtract(ctx context.Context, s Session, spec TableSpec, dict *LabelDictionary) ([]Record, error) {
	if err := e.waitForOutcome(ctx, s, spec); err != nil {
		return nil, err
	}

	var summary string
	if spec.SummarySelector != "" {
		text, err := s.Text(ctx, spec.SummarySelector)
		if err != nil {
			return nil, &ExtractionError{Reason: "could not read the result summary line", Err: err}
		}
		summary = text
	}

	html, err := s.OuterHTML(ctx, spec.TableSelector)
	if err != nil {
		return nil, &ExtractionError{Reason: "could not capture the result table", Err: err}
	}

	records, err := parseTable(html, dict, spec)
	if err != nil {
		return nil, err
	}

	if spec.SummarySelector != "" && len(records) == 1 {
		records[0].Set("chassis_information", summaryLine(summary))
	}

	e.logger.Debug("Extraction complete.",
		zap.String("dictionary", dict.Name()),
		zap.Int("records", len(records)))
	return records, nil
}

// waitForOutcome polls the banner and readiness selectors until one appears
// or the table deadline passes.
func (e *Extractor) waitForOutcome(ctx context.Context, s Session, spec TableSpec) error {
	const pollInterval = 150 * time.Millisecond

	start := time.Now()
	bannerDeadline := start.Add(e.bannerTimeout)
	tableDeadline := start.Add(e.tableTimeout)

	for {
		if spec.BannerSelector != "" && time.Now().Before(bannerDeadline) {
			present, err := s.IsPresent(ctx, spec.BannerSelector)
			if err != nil {
				return &ExtractionError{Reason: "could not probe the no-data banner", Err: err}
			}
			if present {
				return ErrNoData
			}
		}

		present, err := s.IsPresent(ctx, spec.ReadySelector)
		if err != nil {
			return &ExtractionError{Reason: "could not probe the result table", Err: err}
		}
		if present {
			return nil
		}

		if time.Now().After(tableDeadline) {
			return &ExtractionError{Reason: "neither a result table nor a no-data banner appeared within the timeout"}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// summaryLine keeps the first and last whitespace-separated tokens of the
// summary text, which is how the portal frames the queried chassis.
func summaryLine(text string) string {
	fields := strings.Fields(text)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	default:
		return fields[0] + " " + fields[len(fields)-1]
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// parseTable walks every row and cell of the captured table. Each cell holds
// an embedded <div> label and the value as remaining text; labels resolve
// through the dictionary and later duplicates overwrite earlier ones.
func parseTable(html string, dict *LabelDictionary, spec TableSpec) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{Reason: "result table is not parseable HTML", Err: err}
	}

	rows := doc.Find("tr")
	if rows.Length() == 0 {
		return nil, &ExtractionError{Reason: "result table has no rows"}
	}

	var records []Record
	single := Record{}

	rows.Each(func(i int, row *goquery.Selection) {
		if spec.RowPerRecord && spec.SkipHeaderRow && i == 0 {
			return
		}

		target := single
		if spec.RowPerRecord {
			target = Record{}
		}

		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			label, value := parseCell(cell)
			if label == "" {
				return
			}
			target.Set(dict.Canonicalize(label), value)
		})

		if spec.RowPerRecord && len(target) > 0 {
			records = append(records, target)
		}
	})

	if !spec.RowPerRecord {
		if len(single) == 0 {
			return nil, &ExtractionError{Reason: "result table contained no labeled cells"}
		}
		records = []Record{single}
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// parseCell splits a table cell into its embedded label and remaining value
// text, normalizing whitespace and known textual artifacts.
func parseCell(cell *goquery.Selection) (label, value string) {
	label = strings.TrimSpace(cell.Find("div").First().Text())

	value = cell.Text()
	value = innerWhitespace.ReplaceAllString(value, " ")
	if label != "" {
		value = strings.Replace(value, innerWhitespace.ReplaceAllString(label, " "), "", 1)
	}
	value = strings.TrimSpace(value)
	// The portal renders this parenthetical with a stray space.
	value = strings.ReplaceAll(value, "(NACIONAL )", "(NACIONAL)")

	return label, value
}
