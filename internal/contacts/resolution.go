package contacts

// State classifies the outcome of resolving one reference.
type State string

const (
	// StateResolved means the reference mapped to exactly one email.
	StateResolved State = "resolved"
	// StateAmbiguous means several contacts matched comparably well.
	StateAmbiguous State = "ambiguous"
	// StateNotFound means no contact with an email matched.
	StateNotFound State = "not_found"
)

// Candidate is one scored match presented for disambiguation.
type Candidate struct {
	DisplayName  string  `json:"displayName"`
	Email        string  `json:"email"`
	Organization string  `json:"organization,omitempty"`
	Source       Source  `json:"source"`
	Score        float64 `json:"score"`
}

// Resolution is the outcome of resolving one reference. Email is set
// only for StateResolved; Candidates only for StateAmbiguous.
type Resolution struct {
	Ref        string      `json:"ref"`
	State      State       `json:"state"`
	Email      string      `json:"email,omitempty"`
	Contact    *Contact    `json:"contact,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}
