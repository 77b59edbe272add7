package logging

// Component constants for structured logging
const (
	ComponentStartup  = "startup"
	ComponentShutdown = "shutdown"
	ComponentPipeline = "pipeline"
	ComponentKMeans   = "kmeans"
	ComponentDither   = "dither"
	ComponentPalette  = "palette"
	ComponentPreview  = "preview"
	ComponentSSE      = "sse"
	ComponentStorage  = "storage"
	ComponentDatabase = "database"
	ComponentProgress = "progress"
	ComponentPoller   = "poller"
)
