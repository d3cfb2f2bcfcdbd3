package rfp

// RFP is a Request-for-Proposal listing and maps to the `rfps` table.
// JSON tags follow the camelCase convention used by the API.
type RFP struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Organization string  `json:"organization"`
	Category     string  `json:"category"`
	Status       string  `json:"status"`
	Description  string  `json:"description"`
	URL          *string `json:"url,omitempty"`
	Deadline     *string `json:"deadline,omitempty"`
	Budget       *string `json:"budget,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

// SearchableText returns the fields a query is matched against, in a fixed
// order: title, organization, category, description.
func (r RFP) SearchableText() []string {
	return []string{r.Title, r.Organization, r.Category, r.Description}
}

const (
	StatusOpen      = "open"
	StatusClosed    = "closed"
	StatusAwarded   = "awarded"
	StatusCancelled = "cancelled"
)

// AllowedStatuses contains the supported RFP lifecycle states.
var AllowedStatuses = []string{
	StatusOpen,
	StatusClosed,
	StatusAwarded,
	StatusCancelled,
}

// Field limits mirror the column sizes in the migrations.
const (
	MaxTitleLength        = 255
	MaxOrganizationLength = 255
	MaxCategoryLength     = 100
	MaxURLLength          = 2048
	MaxBudgetLength       = 100
	DeadlineLayout        = "2006-01-02"
)
