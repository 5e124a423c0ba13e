package domain

// Message is a chat message in the shared room. DisplayName and Timestamp
// are snapshotted at post time and never recomputed.
type Message struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Text        string `json:"text"`
	DisplayName string `json:"displayName,omitempty"`
	Timestamp   string `json:"timestamp"`
}
