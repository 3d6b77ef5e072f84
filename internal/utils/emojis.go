package utils

// StateEmoji is the marker shown next to an activity in chat messages.
func StateEmoji(state string) string {
	switch state {
	case "completed":
		return "✅"
	case "active":
		return "⏳"
	case "skipped":
		return "➖"
	case "pending":
		return "⬜"
	default:
		return "📌"
	}
}

// TrendEmoji renders the weight trend.
func TrendEmoji(trend string) string {
	switch trend {
	case "up":
		return "📈"
	case "down":
		return "📉"
	default:
		return "➡️"
	}
}
