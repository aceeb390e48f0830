package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for unusable combinations.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Backend {
	case "fs":
		if strings.TrimSpace(c.Storage.FSRoot) == "" {
			problems = append(problems, "storage.fs_root is required for the fs backend")
		}
	case "s3":
		if c.Storage.RawBucket == "" {
			problems = append(problems, "storage.raw_bucket is required for the s3 backend")
		}
		if c.Storage.ProcessedBucket == "" {
			problems = append(problems, "storage.processed_bucket is required for the s3 backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q is not supported (use fs or s3)", c.Storage.Backend))
	}

	switch c.Queues.Backend {
	case "sqlite":
	case "sqs":
		if c.Queues.JobQueueURL == "" {
			problems = append(problems, "queues.job_queue_url is required for the sqs backend")
		}
		if c.Queues.CompletionQueueURL == "" {
			problems = append(problems, "queues.completion_queue_url is required for the sqs backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("queues.backend %q is not supported (use sqlite or sqs)", c.Queues.Backend))
	}

	if c.Queues.SendBatchSize > 10 {
		problems = append(problems, "queues.send_batch_size cannot exceed 10")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
