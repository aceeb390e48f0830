package config

const (
	defaultScratchDir         = "~/.local/share/vodsmith/scratch"
	defaultDataDir            = "~/.local/share/vodsmith/data"
	defaultLogDir             = "~/.local/share/vodsmith/logs"
	defaultStorageBackend     = "fs"
	defaultFSRoot             = "~/.local/share/vodsmith/blobs"
	defaultRawBucket          = "vodsmith-raw"
	defaultProcessedBucket    = "vodsmith-processed"
	defaultQueueBackend       = "sqlite"
	defaultSegmentQueueURL    = "segment-requests"
	defaultJobQueueURL        = "transcode-jobs"
	defaultCompletionQueueURL = "chunk-completions"
	defaultVisibilitySeconds  = 1800
	defaultReceiveWaitSeconds = 20
	defaultSendBatchSize      = 10
	defaultWindowSeconds      = 60.0
	defaultSegmentSeconds     = 10
	defaultWorkerCount        = 2
	defaultPollIntervalMillis = 1000
	defaultProbePrefixBytes   = 5 * 1024 * 1024
	defaultFFmpegBin          = "ffmpeg"
	defaultFFprobeBin         = "ffprobe"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMetricsBind        = "127.0.0.1:2112"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Storage: Storage{
			Backend:         defaultStorageBackend,
			FSRoot:          defaultFSRoot,
			RawBucket:       defaultRawBucket,
			ProcessedBucket: defaultProcessedBucket,
		},
		Queues: Queues{
			Backend:            defaultQueueBackend,
			SegmentQueueURL:    defaultSegmentQueueURL,
			JobQueueURL:        defaultJobQueueURL,
			CompletionQueueURL: defaultCompletionQueueURL,
			VisibilitySeconds:  defaultVisibilitySeconds,
			ReceiveWaitSeconds: defaultReceiveWaitSeconds,
			SendBatchSize:      defaultSendBatchSize,
		},
		Pipeline: Pipeline{
			WindowSeconds:      defaultWindowSeconds,
			SegmentSeconds:     defaultSegmentSeconds,
			WorkerCount:        defaultWorkerCount,
			PollIntervalMillis: defaultPollIntervalMillis,
			ProbePrefixBytes:   defaultProbePrefixBytes,
		},
		Tools: Tools{
			FFmpegBin:  defaultFFmpegBin,
			FFprobeBin: defaultFFprobeBin,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metrics: Metrics{
			Enabled: false,
			Bind:    defaultMetricsBind,
		},
	}
}
