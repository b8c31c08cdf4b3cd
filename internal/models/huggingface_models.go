package models

type RemoteClassificationRequest struct {
	Text string `json:"text"`
}

// RemoteClassificationResponse is the hosted model's answer. Label is either a
// numeric code or a label name.
type RemoteClassificationResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type LLMClassificationResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}
