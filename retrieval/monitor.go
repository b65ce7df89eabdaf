package retrieval

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps during retrieval.
type Monitor interface {
	Start(query string)
	AfterQueryEmbedding(dimension int)
	SourceSearched(source string, hits int)
	SourceFailed(source string, err error)
	Finish(ctx *Context)
}

// noopMonitor is a no-op implementation of Monitor.
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                 {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)      {}
func (n *noopMonitor) SourceSearched(_ string, _ int) {}
func (n *noopMonitor) SourceFailed(_ string, _ error) {}
func (n *noopMonitor) Finish(_ *Context)              {}
