package rfp

func ptr(s string) *string { return &s }

func sampleRFPs() []RFP {
	return []RFP{
		{
			ID:           1,
			Title:        "Software Development RFP",
			Organization: "City of Berkeley",
			Category:     "IT",
			Status:       StatusOpen,
			Description:  "Custom permit tracking system",
			URL:          ptr("https://berkeley.example/rfp/1"),
			Deadline:     ptr("2026-12-01"),
			Budget:       ptr("$250,000"),
			CreatedAt:    "2026-01-01T00:00:00Z",
			UpdatedAt:    "2026-01-01T00:00:00Z",
		},
		{
			ID:           2,
			Title:        "Road Resurfacing",
			Organization: "Alameda County Public Works",
			Category:     "Construction",
			Status:       StatusOpen,
			Description:  "Resurface 12 miles of county roads",
			CreatedAt:    "2026-01-02T00:00:00Z",
			UpdatedAt:    "2026-01-02T00:00:00Z",
		},
		{
			ID:           3,
			Title:        "Campus Network Upgrade",
			Organization: "UC Berkeley",
			Category:     "IT",
			Status:       StatusClosed,
			Description:  "Replace core switches; 50% of budget for SOFTWARE licences",
			CreatedAt:    "2026-01-03T00:00:00Z",
			UpdatedAt:    "2026-01-03T00:00:00Z",
		},
	}
}

func ids(records []RFP) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
