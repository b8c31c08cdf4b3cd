package models

import "time"

type ClassificationInput struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

type Classification struct {
	Label      SentimentLabel             `json:"label"`
	Confidence float64                    `json:"confidence"`
	Scores     map[SentimentLabel]float64 `json:"scores,omitempty"`
}

type PredictionResult struct {
	ID          string         `json:"id" dynamodbav:"id"`
	ModelID     string         `json:"model" dynamodbav:"model_id"`
	Raw         string         `json:"text" dynamodbav:"raw_text"`
	Normalized  string         `json:"normalized" dynamodbav:"normalized_text"`
	Label       SentimentLabel `json:"label" dynamodbav:"label"`
	LabelName   string         `json:"label_name" dynamodbav:"label_name"`
	Description string         `json:"description" dynamodbav:"-"`
	Confidence  float64        `json:"confidence" dynamodbav:"confidence"`
	Cached      bool           `json:"cached" dynamodbav:"-"`
	TweetID     string         `json:"tweet_id,omitempty" dynamodbav:"tweet_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at" dynamodbav:"created_at"`
}

// ClassificationRequest is one item of a queued batch.
type ClassificationRequest struct {
	RequestID string `json:"id"`
	ModelID   string `json:"model"`
	Text      string `json:"text"`
}

type ClassificationResponse struct {
	RequestID string            `json:"id"`
	Result    *PredictionResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// ModelInfo describes a registered classifier.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}
