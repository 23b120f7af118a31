package rag

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"greenpulse/internal/airquality"
)

// LiveContext renders the current snapshot into the prompt's live-data
// section. Cities appear in catalog order so the text is deterministic for
// a given snapshot.
func LiveContext(snap airquality.Snapshot) string {
	var cityLines []string
	for _, cfg := range airquality.Catalog() {
		agg, ok := snap.Cities[cfg.Name]
		if !ok {
			continue
		}
		cityLines = append(cityLines, fmt.Sprintf(
			"  • %s: CO₂ %.1f kg/hr | AQI %.0f | PM2.5 %.1f",
			cfg.Name, agg.TotalCO2, agg.AvgAQI, agg.AvgPM25))
	}

	var topLines []string
	for i, z := range topEmitters(snap.Readings, 3) {
		topLines = append(topLines, fmt.Sprintf(
			"  %d. %s (%s): CO₂=%.1f AQI=%.0f",
			i+1, z.ZoneName, z.City, z.CO2KgHr, z.AQI))
	}

	ts := "now"
	if !snap.Timestamp.IsZero() {
		ts = snap.Timestamp.Format(time.RFC3339)
	}

	return fmt.Sprintf(
		"=== LIVE WAQI/CPCB SENSOR DATA ===\n"+
			"Timestamp: %s\n\n"+
			"City Summary:\n%s\n\n"+
			"Combined: Total CO₂ = %.1f kg/hr | Avg AQI = %.0f\n\n"+
			"Top Emitting Zones:\n%s",
		ts, strings.Join(cityLines, "\n"), snap.TotalCO2, snap.AvgAQI, strings.Join(topLines, "\n"))
}

// topEmitters returns the n highest-emitting zones, reading order breaking
// ties.
func topEmitters(readings []airquality.ZoneRecord, n int) []airquality.ZoneRecord {
	out := make([]airquality.ZoneRecord, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CO2KgHr > out[j].CO2KgHr })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// buildPrompt assembles the single generation prompt: persona, live data,
// retrieved policy text, then the question.
func buildPrompt(question string, snap airquality.Snapshot, hits []Retrieved) string {
	var policyCtx strings.Builder
	for i, h := range hits {
		if i > 0 {
			policyCtx.WriteString("\n\n")
		}
		fmt.Fprintf(&policyCtx, "[%s]\n%s", h.Title, h.Content)
	}

	return fmt.Sprintf(
		"You are GreenPulse AI — real-time carbon intelligence for Indian cities.\n"+
			"You monitor Delhi, Mumbai, Kolkata, Chennai, and Prayagraj via live WAQI/CPCB sensors.\n\n"+
			"%s\n\n"+
			"Retrieved Policy Documents:\n%s\n\n"+
			"Question: %s\n\n"+
			"Provide a concise, data-driven answer with bullet points. "+
			"Cite specific policies (NCAP, GRAP, Green Bharat etc.) and reference the live data. "+
			"Be specific about cities and zones.\n\nAnswer:",
		LiveContext(snap), policyCtx.String(), question)
}

// fallbackAnswer is the degraded canned response streamed when the
// generation call fails: live city status plus the retrieved policy titles
// and standing recommendations.
func fallbackAnswer(snap airquality.Snapshot, hits []Retrieved) string {
	var statusParts []string
	for _, cfg := range airquality.Catalog() {
		agg, ok := snap.Cities[cfg.Name]
		if !ok {
			continue
		}
		statusParts = append(statusParts, fmt.Sprintf("%s: AQI %.0f", cfg.Name, agg.AvgAQI))
	}
	summary := strings.Join(statusParts, " | ")
	if summary == "" {
		summary = "Fetching live data..."
	}

	titles := make([]string, 0, len(hits))
	for _, h := range hits {
		titles = append(titles, h.Title)
	}

	return fmt.Sprintf(
		"🌿 **Live City Status**\n%s\nTotal CO₂: %.1f kg/hr\n\n"+
			"**Retrieved Policies:** %s\n\n"+
			"**Recommended Actions (NCAP/GRAP):**\n"+
			"• Traffic signal synchronisation → −20%% idle emissions\n"+
			"• Industrial output reduction → −25%% in high-emission zones\n"+
			"• Public transport frequency +25%% during peak hours\n\n"+
			"*(Live answer generation is temporarily unavailable)*",
		summary, snap.TotalCO2, strings.Join(titles, ", "))
}
