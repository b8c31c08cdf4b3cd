package models

// TweetRecord is one labelled row of the training CSV.
type TweetRecord struct {
	Sentiment SentimentLabel `json:"sentiment"`
	Message   string         `json:"message"`
	TweetID   string         `json:"tweetid"`
}

type Tweet struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	AuthorID string `json:"author_id,omitempty"`
}

type TwitterLookupResponse struct {
	Data   *Tweet         `json:"data"`
	Errors []TwitterError `json:"errors,omitempty"`
}

type TwitterError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}
