// Package policy holds the fixed corpus of Indian climate policy documents
// the answering backend grounds on. The corpus is immutable for the process
// lifetime; there is no update interface.
package policy

// Document is one corpus entry. Keywords supplement the title for the
// keyword retrieval strategy; the similarity strategy indexes Title and
// Content only.
type Document struct {
	ID       string
	Title    string
	Content  string
	Keywords []string
}

var docs = []Document{
	{
		ID:      "NCAP_2019",
		Title:   "National Clean Air Programme (NCAP) 2019",
		Content: "NCAP 2019 targets 20-30% reduction in PM2.5/PM10 by 2024 across 122 non-attainment cities including Delhi, Mumbai, Kolkata, Chennai, and Prayagraj. Key measures: Real-time CAAQMS monitoring for Tier-1 cities. Rs 4000 crore allocated. BS-VI fuel norms. EV incentives. Biomass burning ban. Industrial stack emissions tightened by 30%. Green belt target: 33% tree cover. For AQI>200: Activate GRAP immediately.",
		Keywords: []string{
			"ncap", "pollution", "pm25", "pm10", "reduction", "monitoring",
			"biomass", "fuel", "incentives", "tree",
		},
	},
	{
		ID:      "GRAP_2023",
		Title:   "Graded Response Action Plan (GRAP) 2023",
		Content: "GRAP emergency protocol for high pollution: Stage I (AQI 201-300): Ban biomass burning, mechanised sweeping, water sprinkling 3x/day. Stage II (AQI 301-400): Diesel genset ban, stone crushers shut, +25% public transport. Stage III (AQI 401-450): Ban BS-III petrol BS-IV diesel, schools online, heavy trucks banned. Stage IV (AQI>450): 50% WFH government, stop non-essential construction. Response: Command Centre T+0, advisory T+30min, source ID T+4hr.",
		Keywords: []string{
			"grap", "stage", "aqi", "ban", "diesel", "schools", "trucks",
			"construction", "severe", "protocol",
		},
	},
	{
		ID:      "SMART_ENERGY_2022",
		Title:   "Smart City Energy Efficiency MoHUA 2022",
		Content: "Demand Response mandatory for industrial consumers >1MW. Time-of-use tariffs shift 15% load from 6-10PM peak. Smart meters 15-minute data for all commercial buildings. ECBC mandatory buildings >500sqm. 100% LED street lighting saves 60%. Adaptive dimming 11PM-5AM. Power Factor Controllers in substations save 8-12%. 30% city electricity from renewables by 2025. 500MW rooftop solar target Tier-1 cities.",
		Keywords: []string{
			"energy", "efficiency", "tariffs", "meters", "buildings", "led",
			"lighting", "solar", "renewables", "peak",
		},
	},
	{
		ID:      "TRAFFIC_CPCB",
		Title:   "Urban Traffic Emission Reduction CPCB Guidelines",
		Content: "Traffic signal synchronisation reduces idling 20%, cuts emissions 15%. Divert heavy vehicles to bypass roads 7AM-10PM. Freight trucks city limits 11PM-5AM only. Metro/BRTS frequency +25% during rush hours. Odd-even scheme in highest emission zones. Diesel vehicles >10 years require permits. Real-time parking guidance saves 8% fuel. 30% EV bus fleet target. CNG autorickshaws where AQI>150.",
		Keywords: []string{
			"traffic", "vehicles", "signal", "metro", "transport", "freight",
			"congestion", "parking", "cng", "fleet",
		},
	},
	{
		ID:      "INDUSTRIAL_BEE",
		Title:   "Industrial Zone Emission Control BEE Standards",
		Content: "CEMS mandatory for all industries >100 TPD, online to CPCB every 15 minutes. Spike response: Reduce production 20-30% within 2 hours. Activate wet scrubbers + ESP at full capacity. Switch to natural gas from coal. Waste heat recovery saves 15-20%. Variable Frequency Drives on pumps/fans saves 30-40%. ISO 50001 Energy Management mandatory facilities >500MW.",
		Keywords: []string{
			"industrial", "industries", "cems", "scrubbers", "production",
			"coal", "gas", "factories", "recovery", "drives",
		},
	},
	{
		ID:      "NDC_INDIA",
		Title:   "India NDC Paris Agreement Climate Commitments",
		Content: "India NDC: 45% reduction emission intensity of GDP by 2030 vs 2005. 50% cumulative power from non-fossil sources by 2030. Carbon sink 2.5-3 Gt CO2 equivalent by 2030. Cities target <5 tonnes CO2 per capita per year by 2030 vs current 8-12 tonnes. Transport: 50% EV penetration by 2030. Buildings: ECBC compliance. Industry: 20-30% efficiency gains. Green bonds, carbon credit trading system, GCF financing.",
		Keywords: []string{
			"ndc", "paris", "climate", "carbon", "2030", "intensity",
			"fossil", "sink", "bonds", "credit",
		},
	},
	{
		ID:      "GREEN_BHARAT_2024",
		Title:   "Green Bharat Mission 2024 Carbon Neutral Cities",
		Content: "Vision: Carbon-neutral cities by India@100 2047. Five pillars: Clean Air AQI<60, Clean Energy 100% municipal renewables, Green Mobility 40% public transport and non-motorized transport, Green Buildings 50% LEED/GRIHA certified, Digital Governance real-time monitoring. 2024-25 priorities: Smart grid 50 cities, 10000 EV charging stations, green hydrogen 5 industrial clusters. Urban forest 100 million trees by 2026. AQI reduction -30% by 2026. EV fleet 25% by 2026. Green cover +15% by 2028.",
		Keywords: []string{
			"green", "bharat", "mission", "neutral", "2047", "hydrogen",
			"charging", "forest", "mobility", "grid",
		},
	},
	{
		ID:      "EMERGENCY_SOP",
		Title:   "City Emergency Response SOP Pollution Events",
		Content: "Trigger conditions: CO2 spike >200% of 60-minute rolling average OR AQI suddenly >300 in any monitored zone. T+0 to T+30min: Alert City Command Centre, deploy mobile AQ monitoring units to affected zone, issue public advisory via SMS. Activate emergency traffic diversions, notify industrial units to reduce output immediately. T+30min to T+4hr: Source identification — industrial vs traffic vs biomass burning. Dispatch rapid response team. Recovery T+4hr+: Root cause analysis, show-cause notice to violators, FIR if deliberate, 48-hour public report.",
		Keywords: []string{
			"emergency", "sop", "spike", "alert", "advisory", "command",
			"diversions", "violators", "rapid", "trigger",
		},
	},
}

// Corpus returns the fixed document corpus in stable order.
func Corpus() []Document {
	out := make([]Document, len(docs))
	copy(out, docs)
	return out
}
