package domain

// LinkState is the OAuth linking detector's captured state for one wizard
// session. Purely observational; read at completion time.
type LinkState struct {
	Linked   bool   `json:"linked"`
	Provider string `json:"provider,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}
