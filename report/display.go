package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pyrs/common"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
	DebugColorFG   = pterm.FgGray
	DebugStyleBG   = pterm.NewStyle(pterm.BgGray, pterm.FgBlack)
)

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	fmt.Print("\n")
	ErrorStyleBG.Print("Internal Error")
	ErrorColorFG.Println(" " + message)
	InfoColorFG.Println("This error was not supposed to happen: this is likely a bug in pyrs.")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	fmt.Print("\n")
	ErrorStyleBG.Print("Fatal Error")
	ErrorColorFG.Println(" " + message)
}

// displayWarning displays a tagged warning message.
func displayWarning(tag, message string) {
	WarnStyleBG.Print(tag)
	WarnColorFG.Println(" " + message)
}

// displayInfo displays a tagged informational message.
func displayInfo(tag, message string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + message)
}

// displayDebug displays a tagged debug message.
func displayDebug(tag, message string) {
	DebugStyleBG.Print(tag)
	fmt.Println(" " + message)
}

// displayCompileMessage displays a compilation error or warning.  The label is
// the string to prefix the message with: eg. if we want to display an error,
// the label is "error".
func displayCompileMessage(label, absPath, reprPath string, span *TextSpan, message string) {
	if span == nil {
		fmt.Printf("%s: ", reprPath)
		ErrorColorFG.Print(label)
		fmt.Printf(": %s\n\n", message)
	} else {
		fmt.Printf("%s:%d:%d: ", reprPath, span.StartLine+1, span.StartCol+1)
		ErrorColorFG.Print(label)
		fmt.Printf(": %s\n\n", message)
		displaySourceText(absPath, span)
	}
}

// displayStdError displays a standard Go error.
func displayStdError(reprPath string, err error) {
	fmt.Printf("%s: ", reprPath)
	ErrorColorFG.Print("error")
	fmt.Printf(": %s\n\n", err)
}

// -----------------------------------------------------------------------------

// displaySourceText displays a segment of source text defined by a text span.
// Files that can no longer be read are silently skipped: the message itself
// has already been displayed.
func displaySourceText(absPath string, span *TextSpan) {
	file, err := os.Open(absPath)
	if err != nil {
		return
	}
	defer file.Close()

	// Collect all the source lines containing the given source text.
	var lines []string
	sc := bufio.NewScanner(file)
	for ln := 0; sc.Scan(); ln++ {
		if span.StartLine <= ln && ln <= span.EndLine {
			lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
		}
	}

	if sc.Err() != nil || len(lines) == 0 {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt
	for _, line := range lines {
		lineIndent := len(line) - len(strings.TrimLeft(line, " "))
		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	// Calculate the maximum line number length.
	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	for i, line := range lines {
		InfoColorFG.Print(fmt.Sprintf(lineNumFmtStr, i+span.StartLine+1))
		fmt.Println(line[minIndent:])

		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		// The first line is underlined from the start column; every other
		// line from its first non-indent character.
		carretStart := 0
		if i == 0 {
			carretStart = span.StartCol - minIndent
		}

		// The last line is underlined up to the end column; every other line
		// to its end.
		carretEnd := len(line) - minIndent
		if i == len(lines)-1 && span.EndCol-minIndent < carretEnd {
			carretEnd = span.EndCol - minIndent
		}

		if carretStart < 0 {
			carretStart = 0
		}

		if carretEnd <= carretStart {
			carretEnd = carretStart + 1
		}

		fmt.Print(strings.Repeat(" ", carretStart))
		ErrorColorFG.Println(strings.Repeat("^", carretEnd-carretStart))
	}

	fmt.Println()
}

// -----------------------------------------------------------------------------

// displayHeader displays the tool information before starting transpilation.
func displayHeader(srcPath string) {
	fmt.Print("pyrs ")
	InfoColorFG.Print("v" + common.PyrsVersion)
	fmt.Print(" -- source: ")
	InfoColorFG.Println(filepath.Base(srcPath))
}

// phaseSpinner stores the current phase spinner.
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Analyzing")

// phaseLabel pads a phase name so that the phase timings line up.
func phaseLabel(phase string) string {
	padding := maxPhaseLength - len(phase) + 2
	if padding < 1 {
		padding = 1
	}

	return phase + strings.Repeat(" ", padding)
}

// displayBeginPhase displays the beginning of a transpilation phase.
func displayBeginPhase(phase string) {
	currentPhase = phase

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))
	spinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}
	spinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}

	started, err := spinner.Start(phaseLabel(phase) + "...")
	if err != nil {
		phaseSpinner = nil
		return
	}

	phaseSpinner = started
	phaseStartTime = time.Now()
}

// displayEndPhase displays the end of a transpilation phase.  It does nothing
// if no phase is running.
func displayEndPhase(success bool) {
	if phaseSpinner == nil {
		return
	}

	if success {
		phaseSpinner.Success(
			phaseLabel(currentPhase),
			fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
		)
	} else {
		phaseSpinner.Fail(phaseLabel(currentPhase))
	}

	phaseSpinner = nil
}

// displayFinished displays the closing message.
func displayFinished(success bool, errorCount, warningCount int) {
	fmt.Print("\n")

	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")

	switch errorCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		ErrorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		ErrorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		WarnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		WarnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}
}
