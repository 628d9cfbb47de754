package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"arcdata/models"

	"github.com/PuerkitoBio/goquery"
)

// Selectors the Workshop page layout is expected to provide
const (
	PanelSelector      = ".tabber__panel"
	RowSelector        = "table.wikitable tbody tr"
	ScrappyRowSelector = "#citizen-section-2 table.wikitable tbody tr"
)

// ErrMissingContent is returned when the page has no station panels at all
var ErrMissingContent = errors.New("workshop page has no station panels")

const (
	scrappyName        = "Scrappy"
	scrappyDescription = "This rooster has been a resident of the workshop since the day you moved in, and likely long before that. Will periodically bring back dubiously-sourced materials and share them with you."
)

var scrappyPassiveItems = []string{"Metal Parts", "Fabric", "Plastic Parts", "Chemicals", "Rubber Parts", "Assorted Seeds"}

// "20x Metal Parts". \p{Zs} covers the non-breaking spaces the wiki likes to emit.
var requirementPattern = regexp.MustCompile(`^(\d+)x[\s\p{Zs}]+(.+)$`)

var leadingIntPattern = regexp.MustCompile(`^[+-]?\d+`)

// Parser extracts workbench data from the Workshop page
type Parser struct {
	now func() time.Time
}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// WithClock returns a copy of the parser that stamps documents using now
func (p *Parser) WithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// ParseHTML extracts the workbench document from raw page HTML
func (p *Parser) ParseHTML(htmlContent, source string) (*models.WorkbenchDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return p.ExtractFromDocument(doc, source)
}

// ExtractFromDocument walks every station panel and the Scrappy section.
// It only reads the document, so it works the same on a live page snapshot
// and on a saved fixture.
func (p *Parser) ExtractFromDocument(doc *goquery.Document, source string) (*models.WorkbenchDocument, error) {
	panels := doc.Find(PanelSelector)
	if panels.Length() == 0 {
		return nil, fmt.Errorf("%w (selector %q)", ErrMissingContent, PanelSelector)
	}

	workbenches := make([]models.Workbench, 0, panels.Length())
	var err error
	panels.EachWithBreak(func(i int, panel *goquery.Selection) bool {
		var wb models.Workbench
		if wb, err = p.extractWorkbench(panel); err != nil {
			err = fmt.Errorf("station panel %d: %w", i, err)
			return false
		}
		workbenches = append(workbenches, wb)
		return true
	})
	if err != nil {
		return nil, err
	}

	return &models.WorkbenchDocument{
		Workbenches: workbenches,
		Scrappy: models.Scrappy{
			Name:         scrappyName,
			Description:  scrappyDescription,
			PassiveItems: append([]string(nil), scrappyPassiveItems...),
			Levels:       p.extractScrappyLevels(doc.Selection),
		},
		Metadata: models.Metadata{
			Source:    source,
			FetchedAt: p.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		},
	}, nil
}

// extractWorkbench reads one station panel. The station name comes from the
// panel id: "tabber-Gear_Bench" -> "Gear Bench". A panel without an id
// cannot be named and fails with ErrMissingContent.
func (p *Parser) extractWorkbench(panel *goquery.Selection) (models.Workbench, error) {
	id, ok := panel.Attr("id")
	if !ok {
		return models.Workbench{}, fmt.Errorf("%w: panel has no id", ErrMissingContent)
	}
	name := strings.ReplaceAll(strings.TrimPrefix(id, "tabber-"), "_", " ")

	levels := make([]models.WorkbenchLevel, 0)
	eachDataRow(panel.Find(RowSelector), func(cells *goquery.Selection) {
		levels = append(levels, models.WorkbenchLevel{
			Level:        parseLeadingInt(cleanText(cells.Eq(0))),
			Requirements: extractRequirements(cells.Eq(1)),
			Crafts:       extractCrafts(cells.Eq(2)),
		})
	})

	return models.Workbench{
		Name:   name,
		Levels: levels,
	}, nil
}

func (p *Parser) extractScrappyLevels(root *goquery.Selection) []models.ScrappyLevel {
	levels := make([]models.ScrappyLevel, 0)
	eachDataRow(root.Find(ScrappyRowSelector), func(cells *goquery.Selection) {
		levels = append(levels, models.ScrappyLevel{
			Level:        cleanText(cells.Eq(0)),
			Requirements: extractRequirements(cells.Eq(1)),
			Rates:        cleanText(cells.Eq(2)),
		})
	})
	return levels
}

// eachDataRow calls fn with the td cells of every row after the header row.
// Rows with fewer than three cells are not level rows and are skipped.
func eachDataRow(rows *goquery.Selection, fn func(cells *goquery.Selection)) {
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		fn(cells)
	})
}

func extractRequirements(cell *goquery.Selection) []models.Requirement {
	requirements := make([]models.Requirement, 0)
	cell.Find("li").Each(func(_ int, li *goquery.Selection) {
		requirements = append(requirements, ParseRequirement(cleanText(li), linkTitle(li)))
	})
	return requirements
}

func extractCrafts(cell *goquery.Selection) []string {
	crafts := make([]string, 0)
	cell.Find("li").Each(func(_ int, li *goquery.Selection) {
		if title := linkTitle(li); title != nil && *title != "" {
			crafts = append(crafts, *title)
			return
		}
		crafts = append(crafts, cleanText(li))
	})
	return crafts
}

// ParseRequirement turns "20x Metal Parts" into a quantity and item name.
// linkTitle is the title of the item link inside the entry, if there is one;
// it names the item more precisely than the visible text. Text that does not
// follow the pattern is kept as-is.
func ParseRequirement(text string, linkTitle *string) models.Requirement {
	text = strings.TrimSpace(text)

	if m := requirementPattern.FindStringSubmatch(text); m != nil {
		if qty, err := strconv.Atoi(m[1]); err == nil {
			item := m[2]
			if linkTitle != nil && *linkTitle != "" {
				item = *linkTitle
			}
			return models.Requirement{Parsed: true, Quantity: qty, Item: item}
		}
	}

	return models.Requirement{Text: text, ItemName: linkTitle}
}

// linkTitle returns the title attribute of the first link, or nil when the
// entry has no link or the link has no title
func linkTitle(s *goquery.Selection) *string {
	link := s.Find("a").First()
	if link.Length() == 0 {
		return nil
	}
	title, ok := link.Attr("title")
	if !ok {
		return nil
	}
	return &title
}

// parseLeadingInt reads the integer at the start of s ("3", "3 (max)").
// nil means s does not start with a number.
func parseLeadingInt(s string) *int {
	m := leadingIntPattern.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

func cleanText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
