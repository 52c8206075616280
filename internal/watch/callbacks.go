package watch

// Callbacks are the observer hooks the hosting layer (CLI, MCP server)
// injects into a Watcher. They are invoked synchronously on state
// transitions; nil hooks are skipped and return values do not exist.
type Callbacks struct {
	OnLog                func(msg string)
	OnFileDetected       func(path string)
	OnProcessingStart    func(path string)
	OnProcessingComplete func(path, outputPath string)
	OnProcessingError    func(path string, err error)
}

func (c Callbacks) log(msg string) {
	if c.OnLog != nil {
		c.OnLog(msg)
	}
}

func (c Callbacks) fileDetected(path string) {
	if c.OnFileDetected != nil {
		c.OnFileDetected(path)
	}
}

func (c Callbacks) processingStart(path string) {
	if c.OnProcessingStart != nil {
		c.OnProcessingStart(path)
	}
}

func (c Callbacks) processingComplete(path, outputPath string) {
	if c.OnProcessingComplete != nil {
		c.OnProcessingComplete(path, outputPath)
	}
}

func (c Callbacks) processingError(path string, err error) {
	if c.OnProcessingError != nil {
		c.OnProcessingError(path, err)
	}
}
