package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/antiwork/shortest/pkg/logging"
	"github.com/antiwork/shortest/pkg/run"
)

var storeLog, _ = logging.NewLogger("store")

// Flow cache file names.
const (
	ExplorerFlowsFile = "flows.json"
	CrawlerFlowsFile  = "crawled-flows.json"
)

// flowFile is the on-disk layout of a flow cache.
type flowFile[T any] struct {
	TestPlans []T `json:"testPlans"`
}

// FlowRepository caches discovered flows in a JSON file.
type FlowRepository[T any] struct {
	path string
}

// NewFlowRepository stores flows in cacheDir/fileName.
func NewFlowRepository[T any](cacheDir, fileName string) *FlowRepository[T] {
	return &FlowRepository[T]{path: filepath.Join(cacheDir, fileName)}
}

// NewExplorerFlowRepository returns the explorer flow cache of cacheDir.
func NewExplorerFlowRepository(cacheDir string) *FlowRepository[run.ExplorerFlow] {
	return NewFlowRepository[run.ExplorerFlow](cacheDir, ExplorerFlowsFile)
}

// NewCrawlerFlowRepository returns the crawler flow cache of cacheDir.
func NewCrawlerFlowRepository(cacheDir string) *FlowRepository[run.CrawlerFlow] {
	return NewFlowRepository[run.CrawlerFlow](cacheDir, CrawlerFlowsFile)
}

// Path returns the cache file path.
func (r *FlowRepository[T]) Path() string {
	return r.path
}

// Save replaces the cached flows.
func (r *FlowRepository[T]) Save(flows []T) error {
	if flows == nil {
		flows = []T{}
	}
	data, err := json.MarshalIndent(flowFile[T]{TestPlans: flows}, "", "  ")
	if err != nil {
		return fmt.Errorf("flow store: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), defaultDirMode); err != nil {
		return fmt.Errorf("flow store: create dir: %w", err)
	}
	if err := os.WriteFile(r.path, data, defaultFileMode); err != nil {
		return fmt.Errorf("flow store: write %s: %w", r.path, err)
	}
	return nil
}

// Load returns the cached flows. A missing or unreadable cache yields an
// empty list.
func (r *FlowRepository[T]) Load() []T {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			storeLog.Debugf("No existing flow cache at %s: %v", r.path, err)
		}
		return []T{}
	}

	var file flowFile[T]
	if err := json.Unmarshal(data, &file); err != nil {
		storeLog.Debugf("Ignoring malformed flow cache %s: %v", r.path, err)
		return []T{}
	}
	if file.TestPlans == nil {
		return []T{}
	}
	return file.TestPlans
}
