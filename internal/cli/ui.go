package cli

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/harvest"
	"github.com/matzehuels/locallore/pkg/store"
)

// stdout receives all human-readable command output. Tests swap it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// status is a one-line message prefixed with a colored icon.
type status struct {
	icon  string
	style lipgloss.Style
	body  func(string) string
}

var (
	statusSuccess = status{"✓", lipgloss.NewStyle().Foreground(colorGreen), nil}
	statusError   = status{"✗", lipgloss.NewStyle().Foreground(colorRed), nil}
	statusWarning = status{"!", lipgloss.NewStyle().Foreground(colorYellow), func(s string) string { return StyleWarning.Render(s) }}
	statusInfo    = status{"›", lipgloss.NewStyle().Foreground(colorGray), nil}
)

func (s status) print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.body != nil {
		msg = s.body(msg)
	}
	fmt.Fprintln(stdout, s.style.Render(s.icon)+" "+msg)
}

func printSuccess(format string, args ...any) { statusSuccess.print(format, args...) }
func printError(format string, args ...any)   { statusError.print(format, args...) }
func printWarning(format string, args ...any) { statusWarning.print(format, args...) }
func printInfo(format string, args ...any)    { statusInfo.print(format, args...) }

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(stdout) }

// =============================================================================
// Scan Output
// =============================================================================

// formatCounts renders per-ecosystem counts sorted by ecosystem, e.g.
// "3 cargo · 12 npm".
func formatCounts(counts map[deps.Ecosystem]int) string {
	if len(counts) == 0 {
		return StyleDim.Render("no manifests found")
	}
	var parts []string
	for _, eco := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, StyleNumber.Render(strconv.Itoa(counts[eco]))+" "+StyleDim.Render(string(eco)))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func printCounts(counts map[deps.Ecosystem]int) {
	fmt.Fprintln(stdout, "  "+formatCounts(counts))
}

func printScanSummary(s *harvest.ScanSummary) {
	printSuccess("Scanned %s", StyleHighlight.Render(s.Path))
	printCounts(s.PerEcosystem)
	printKeyValue("collected", strconv.Itoa(s.Collected))
	printKeyValue("upserted", strconv.Itoa(s.Upserted))
	printKeyValue("unindexed", strconv.Itoa(len(s.Unindexed)))
	printKeyValue("duration", s.Duration.Round(time.Millisecond).String())
}

// printRecords prints one line per record with its first-seen date.
func printRecords(recs []store.Record) {
	for _, r := range recs {
		fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+StyleValue.Render(r.Identity().String())+
			" "+StyleDim.Render("first seen "+r.FirstSeenAt.Format(time.DateOnly)))
	}
}
