package agent

// Card describes the agent's identity and capabilities. Served at the
// A2A well-known endpoint.
type Card struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
	Tools        []string `json:"tools"`
}
