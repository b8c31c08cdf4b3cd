package kafka_client

import "time"

const (
	KAFKA_TOPIC_PREDICTIONS             = "tweet-predictions"       // one event per served prediction
	KAFKA_TOPIC_CLASSIFICATION_REQUESTS = "classification-requests" // batches of tweets queued for classification
	KAFKA_TOPIC_CLASSIFICATION_RESULTS  = "classification-results"  // batched results for queued requests
)

const (
	MAX_RETRIES      = 5
	RETRY_DELAY      = 2 * time.Second
	READ_TIMEOUT     = time.Second
	DELIVERY_TIMEOUT = 10 * time.Second
)
