package prompts

import (
	"sort"
	"strings"
	"sync"

	"github.com/antiwork/shortest/pkg/types"
)

// Blocks maps placeholder names to their replacement text.
type Blocks map[string]string

// BuildSystemPrompt substitutes every {{NAME}} placeholder of template with
// the matching block. Unknown placeholders are left untouched.
func BuildSystemPrompt(template string, blocks Blocks) string {
	prompt := template
	for name, value := range blocks {
		prompt = strings.ReplaceAll(prompt, "{{"+name+"}}", value)
	}
	return prompt
}

// blocksFor returns the task and output blocks of a run mode. A client
// without a run context behaves like a test run.
func blocksFor(mode types.RunMode) Blocks {
	switch mode {
	case types.RunModeExplorer:
		return Blocks{TaskBlock: ExplorerTaskBlock, OutputBlock: ExplorerOutputBlock}
	case types.RunModeCrawler:
		return Blocks{TaskBlock: CrawlerTaskBlock, OutputBlock: CrawlerOutputBlock}
	default:
		return Blocks{TaskBlock: TestTaskBlock, OutputBlock: TestOutputBlock}
	}
}

// PromptBuilder constructs the system prompt of each run mode. Built prompts
// are memoized since the template never changes.
type PromptBuilder struct {
	cache              map[types.RunMode]string
	customInstructions string
	mu                 sync.Mutex
}

// NewPromptBuilder creates a new prompt builder with default settings
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{cache: make(map[types.RunMode]string)}
}

// WithCustomInstructions adds project specific instructions to every prompt.
func (pb *PromptBuilder) WithCustomInstructions(instructions string) *PromptBuilder {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.customInstructions = strings.TrimSpace(instructions)
	pb.cache = make(map[types.RunMode]string)
	return pb
}

// Build returns the system prompt for mode.
func (pb *PromptBuilder) Build(mode types.RunMode) string {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if prompt, ok := pb.cache[mode]; ok {
		return prompt
	}

	prompt := BuildSystemPrompt(SystemPromptTemplate, blocksFor(mode))
	if pb.customInstructions != "" {
		prompt = "<custom_instructions>\n" + pb.customInstructions + "\n</custom_instructions>\n\n" + prompt
	}
	pb.cache[mode] = prompt
	return prompt
}

var defaultBuilder = NewPromptBuilder()

// BuildTestPrompt returns the test mode system prompt.
func BuildTestPrompt() string {
	return defaultBuilder.Build(types.RunModeTest)
}

// BuildExplorerPrompt returns the explorer mode system prompt.
func BuildExplorerPrompt() string {
	return defaultBuilder.Build(types.RunModeExplorer)
}

// BuildCrawlerPrompt returns the crawler mode system prompt.
func BuildCrawlerPrompt() string {
	return defaultBuilder.Build(types.RunModeCrawler)
}

// FormatTaskPrompt renders the user message of an action. Context lines
// such as the target URL are appended after the instruction.
func FormatTaskPrompt(instruction string, context map[string]string) string {
	if len(context) == 0 {
		return instruction
	}

	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n<context>\n")
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(context[k])
		b.WriteString("\n")
	}
	b.WriteString("</context>")
	return b.String()
}
