package config

const (
	// TopicIngest is the NSQ topic ingestion tasks are published to.
	TopicIngest = "ingest.task"

	// ChannelIngestWorker is the consumer channel for the ingestion worker.
	ChannelIngestWorker = "worker"
)
