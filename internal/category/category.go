package category

// Summary is one facet entry: a distinct RFP category and how many RFPs
// carry it.
type Summary struct {
	Name  string `json:"category"`
	Count int    `json:"count"`
}

const (
	DefaultLimit = 100
	MaxLimit     = 500
)
