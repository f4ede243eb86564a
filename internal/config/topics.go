package config

const (
	// TopicCrawlTask is the NSQ topic for asynchronous crawl-and-index jobs.
	TopicCrawlTask = "crawl.task"
)
