package types

// Event is the flat form of a game event: its type plus string attributes.
// The journal stores it and the websocket stream sends it as JSON.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
