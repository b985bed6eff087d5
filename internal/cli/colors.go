package cli

import "fmt"

// ANSI color codes used by the CLI output
const (
	Reset = "\033[0m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	White  = "\033[37m"

	Bold = "\033[1m"
	Dim  = "\033[2m"
)

var (
	HeaderStyle = Cyan + Bold

	SuccessStyle = Green + Bold
	ErrorStyle   = Red + Bold
	WarningStyle = Yellow + Bold
	InfoStyle    = Blue + Bold

	LabelStyle     = Cyan
	ValueStyle     = White + Bold
	DimStyle       = Dim
	CountStyle     = Yellow + Bold
	SecondaryStyle = Blue
)

func FormatHeader(text string) string {
	return HeaderStyle + text + Reset
}

func FormatValue(text string) string {
	return ValueStyle + text + Reset
}

func FormatCount(count int) string {
	return CountStyle + fmt.Sprintf("%d", count) + Reset
}

func FormatDim(text string) string {
	return DimStyle + text + Reset
}

func FormatSecondary(text string) string {
	return SecondaryStyle + text + Reset
}

// FormatLabelValue formats a label-value pair
func FormatLabelValue(label, value string) string {
	return LabelStyle + label + Reset + " " + ValueStyle + value + Reset
}
