package alert

import (
	"fmt"
	"strings"

	"gmpwatch/internal/ipo"
)

// Compose renders one eligible alert into a WhatsApp message addressed to
// the configured group. Pure: one alert in, one message out, callers keep
// the screening order.
func Compose(a ipo.EligibleAlert, groupID string) ipo.Message {
	return ipo.Message{
		To:   groupID,
		Body: body(a),
	}
}

func body(a ipo.EligibleAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 *%s* (%s)\n", a.Name, a.Exchange.Label())
	fmt.Fprintf(&b, "GMP: %.1f%% (%s tier)\n", a.GMPPercent, a.Tier)
	fmt.Fprintf(&b, "Closes: %s", closeLine(a))
	return b.String()
}

func closeLine(a ipo.EligibleAlert) string {
	date := a.CloseDate.Format("Mon, 2 Jan")
	switch a.DaysToClose {
	case 0:
		return date + " (today)"
	case 1:
		return date + " (in 1 day)"
	default:
		return fmt.Sprintf("%s (in %d days)", date, a.DaysToClose)
	}
}
