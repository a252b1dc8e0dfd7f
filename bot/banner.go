package bot

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const bannerWidth = 70

// printBanner prints the startup banner once the session is ready.
func printBanner(botName, botID, defaultPrefix string, serverCount int) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen).SprintFunc()

	inner := bannerWidth - 2
	cyan.Printf("╔%s╗\n", strings.Repeat("═", inner))
	cyan.Printf("║%s║\n", centerText("🚀  BOT LAUNCHED SUCCESSFULLY!", inner))
	cyan.Printf("╠%s╣\n", strings.Repeat("═", inner))

	items := []struct {
		label string
		value string
	}{
		{"Bot Name", botName},
		{"Bot ID", botID},
		{"Default Prefix", defaultPrefix},
		{"Servers", fmt.Sprintf("%d", serverCount)},
	}
	for _, item := range items {
		padding := inner - len(item.label) - len(item.value) - 5
		if padding < 0 {
			padding = 0
		}
		cyan.Printf("║  %s : %s%s║\n", item.label, green(item.value), strings.Repeat(" ", padding))
	}

	cyan.Printf("╚%s╝\n", strings.Repeat("═", inner))
}

func centerText(text string, width int) string {
	padding := width - len([]rune(text))
	if padding < 0 {
		return text
	}
	left := padding / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", padding-left)
}
