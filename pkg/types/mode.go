package types

// RunMode selects the system prompt and the expected result schema of an
// action. It is fixed when the agent client is constructed.
type RunMode int

const (
	RunModeNone RunMode = iota
	RunModeTest
	RunModeExplorer
	RunModeCrawler
)

func (m RunMode) String() string {
	switch m {
	case RunModeTest:
		return "test"
	case RunModeExplorer:
		return "explorer"
	case RunModeCrawler:
		return "crawler"
	default:
		return "none"
	}
}

// DiscoversFlows reports whether the mode expects a flow list result.
func (m RunMode) DiscoversFlows() bool {
	return m == RunModeExplorer || m == RunModeCrawler
}
