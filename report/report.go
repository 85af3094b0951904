// Package report writes the console summaries of a run. Nothing here computes anything: every function
// takes values produced by package trend and prints them, categories in the configured order.
package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/invertedv/censusdf/trend"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const width = 80

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
)

// Reporter prints to w.
type Reporter struct {
	w          io.Writer
	categories []string
	p          *message.Printer
}

// New returns a Reporter writing to w that orders grouped output by categories.
func New(w io.Writer, categories []string) *Reporter {
	return &Reporter{w: w, categories: categories, p: message.NewPrinter(language.English)}
}

func (r *Reporter) printf(format string, a ...any) {
	_, _ = r.p.Fprintf(r.w, format, a...)
}

// Banner prints a title block.
func (r *Reporter) Banner(title string, lines ...string) {
	rule := strings.Repeat("=", width)
	r.printf("%s\n%s\n", rule, bannerStyle.Render(title))
	for _, l := range lines {
		r.printf("%s\n", l)
	}
	r.printf("%s\n", rule)
}

// Section prints a heading between rules.
func (r *Reporter) Section(title string) {
	rule := strings.Repeat("=", width)
	r.printf("\n%s\n%s\n%s\n", rule, sectionStyle.Render(title), rule)
}

// Heading prints a heading underlined with dashes.
func (r *Reporter) Heading(title string) {
	r.printf("\n%s\n%s\n", title, strings.Repeat("-", 60))
}

// Line prints a formatted line. Integers are printed with thousands separators.
func (r *Reporter) Line(format string, a ...any) {
	r.printf(format+"\n", a...)
}

// rank orders items by the position of their category in r.categories. Unknown categories go last.
func rank[T any](r *Reporter, items []T, category func(T) string) []T {
	pos := func(cat string) int {
		if p := slices.Index(r.categories, cat); p >= 0 {
			return p
		}

		return len(r.categories)
	}

	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int { return pos(category(a)) - pos(category(b)) })

	return out
}

func pct(x *float64) string {
	if x == nil {
		return "n/a"
	}

	return fmt.Sprintf("%+.1f%%", *x)
}

func num(x *float64) string {
	if x == nil {
		return "n/a"
	}

	return fmt.Sprintf("%.1f", *x)
}

// Typology prints the number of counties of each category.
func (r *Reporter) Typology(total int, counts map[string]int) {
	r.printf("Total counties: %d\n\nCounty types:\n", total)
	for _, cat := range r.categories {
		r.printf("  %s: %d\n", cat, counts[cat])
	}
}

// RateChanges prints one line per category: start -> end (percent change).
func (r *Reporter) RateChanges(title string, changes []trend.RateChange) {
	r.Heading(title)
	for _, rc := range rank(r, changes, func(rc trend.RateChange) string { return rc.Category }) {
		r.printf("  %s: %.1f -> %.1f (%s)\n", rc.Category, rc.Start, rc.End, pct(rc.PctChange))
	}
}

// FertilityPoints prints each computed fertility rate with its totals.
func (r *Reporter) FertilityPoints(points []trend.FertilityPoint) {
	for _, fp := range rank(r, points, func(fp trend.FertilityPoint) string { return fp.Category }) {
		r.printf("  %s %s: %.2f per 1000 (%d births / %d women)\n", fp.Category, strconv.Itoa(fp.Year), fp.Value,
			int(fp.Births), int(fp.Women))
	}
}

// FertilitySummary prints the first and last fertility rate of each category and the change between them.
func (r *Reporter) FertilitySummary(changes []trend.RateChange) {
	for _, rc := range rank(r, changes, func(rc trend.RateChange) string { return rc.Category }) {
		r.printf("\n%s:\n", rc.Category)
		r.printf("  %s: %.1f per 1,000 women\n", strconv.Itoa(rc.From), rc.Start)
		r.printf("  %s: %.1f per 1,000 women\n", strconv.Itoa(rc.To), rc.End)
		r.printf("  Change: %s (%s)\n", fmt.Sprintf("%+.1f", rc.Change), pct(rc.PctChange))
	}
}

// Under5 prints the under-5 totals of each category.
func (r *Reporter) Under5(title string, changes []trend.Under5Change) {
	r.Heading(title)
	for _, uc := range rank(r, changes, func(uc trend.Under5Change) string { return uc.Category }) {
		r.printf("  %s: %d -> %d (%s)\n", uc.Category, uc.Start, uc.End, pct(uc.PctChange))
	}
}

// Aggregate prints the pooled under-5 totals of a set of counties.
func (r *Reporter) Aggregate(label string, count int, tot trend.Totals) {
	r.printf("\nNumber of %s: %d\n", label, count)
	r.printf("  Under-5 population at base:   %d\n", tot.Start)
	r.printf("  Under-5 population at latest: %d\n", tot.End)
	r.printf("  Absolute change: %d\n", tot.Change)
	r.printf("  Percent change: %s\n", pct(tot.PctChange))
}

// Declines prints counties by absolute under-5 change.
func (r *Reporter) Declines(title string, rows []trend.CountyChange) {
	r.Heading(title)
	for _, c := range rows {
		r.printf("  %s, %s: %d (%s)\n", c.County, c.State, c.Change, pct(c.PctChange))
	}
}

// PctDeclines prints counties by percent under-5 change.
func (r *Reporter) PctDeclines(title string, rows []trend.CountyChange) {
	r.Heading(title)
	for _, c := range rows {
		r.printf("  %s, %s: %s (%d)\n", c.County, c.State, pct(c.PctChange), c.Change)
	}
}

// Gainers prints counties whose under-5 population grew.
func (r *Reporter) Gainers(title string, rows []trend.CountyChange) {
	r.Heading(title)
	for _, c := range rows {
		r.printf("  %s, %s: +%d (%s)\n", c.County, c.State, c.Change, pct(c.PctChange))
	}
}

// BirthRateDeclines prints counties by percent change in birth rate.
func (r *Reporter) BirthRateDeclines(title string, rows []trend.BirthCounty) {
	r.Heading(title)
	for _, c := range rows {
		r.printf("  %s, %s: %s -> %s (%s)\n", c.County, c.State, num(c.RateStart), num(c.RateEnd),
			pct(c.RatePctChange))
	}
}

// FertilityRanks prints counties by their latest fertility rate.
func (r *Reporter) FertilityRanks(title string, rows []trend.FertilityCounty) {
	r.Heading(title)
	for _, c := range rows {
		r.printf("  %s, %s: %s per 1,000 women\n", c.County, c.State, num(c.RateLatest))
	}
}

// Exported notes an artifact that was written.
func (r *Reporter) Exported(name, detail string) {
	if detail == "" {
		r.printf("Exported %s\n", name)
		return
	}

	r.printf("Exported %s: %s\n", name, detail)
}

// Changes extracts the shared county fields of detail rows, for the county ranking printers.
func Changes[T interface{ Base() trend.CountyChange }](rows []T) []trend.CountyChange {
	out := make([]trend.CountyChange, len(rows))
	for ind, r := range rows {
		out[ind] = r.Base()
	}

	return out
}
