package commands

import (
	"fmt"
	"strings"
)

// Shared output helpers so every subcommand prints the same shapes.

// PrintSeparator prints a horizontal rule.
func PrintSeparator() {
	fmt.Println(strings.Repeat("─", 59))
}

// PrintSuccess prints a success line.
func PrintSuccess(message string) {
	fmt.Println("✅ " + message)
}

// PrintWarning prints a warning line.
func PrintWarning(message string) {
	fmt.Println("⚠️  " + message)
}

// PrintKeyValue prints one aligned key-value line.
func PrintKeyValue(key, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTable renders rows under a header with fixed-width columns.
func PrintTable(columns []string, widths []int, rows [][]string) {
	fmt.Println(formatRow(columns, widths))

	total := 2 * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	fmt.Println(strings.Repeat("─", total))

	for _, row := range rows {
		fmt.Println(formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	return strings.Join(parts, "  ")
}
