// Package review turns pull request diffs into published review comments:
// prompt assembly under a token budget, model invocation, and posting.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ganderhq/gander/internal/core"
	"github.com/ganderhq/gander/internal/llm"
)

const (
	omittedHunksMarker = "... (further hunks omitted)"
	droppedFileMarker  = "(diff omitted to fit the review budget)"

	// Floor for the diff portion of the prompt when the scaffold eats
	// nearly the whole budget.
	minDiffBudget = 256
)

// Generator produces review text for a diff bundle through the configured
// model, keeping the rendered prompt under the token budget.
type Generator struct {
	model           llm.Model
	prompts         *llm.PromptManager
	estimator       *llm.TokenEstimator
	maxPromptTokens int
	logger          *slog.Logger
}

func NewGenerator(model llm.Model, prompts *llm.PromptManager, estimator *llm.TokenEstimator, maxPromptTokens int, logger *slog.Logger) *Generator {
	if maxPromptTokens <= 0 {
		maxPromptTokens = 12000
	}
	return &Generator{
		model:           model,
		prompts:         prompts,
		estimator:       estimator,
		maxPromptTokens: maxPromptTokens,
		logger:          logger,
	}
}

// Generate renders the prompt for the bundle and asks the model for a
// review. Every failure surfaces as a generation error except
// core.ErrNoReviewableChanges.
func (g *Generator) Generate(ctx context.Context, bundle *core.DiffBundle, repoCfg *core.RepoConfig) (*core.ReviewResult, error) {
	const op = "generate review"

	files := reviewableFiles(bundle, repoCfg, g.logger)
	if len(files) == 0 {
		return nil, core.ErrNoReviewableChanges
	}

	provider := llm.ModelProvider(g.model.Provider())
	data := llm.ReviewPromptData{
		RepoFullName:       bundle.RepoFullName,
		PRTitle:            bundle.PRTitle,
		CustomInstructions: repoCfg.CustomInstructions,
	}

	// Size the scaffold without the diff so the diff gets whatever budget
	// remains.
	scaffold, err := g.prompts.Render(llm.CodeReviewPrompt, provider, data)
	if err != nil {
		return nil, core.NewGenerationError(op, err)
	}
	budget := g.maxPromptTokens - g.estimator.Estimate(scaffold) - 64
	if budget < minDiffBudget {
		budget = minDiffBudget
	}

	diff, truncated := g.assembleDiff(files, budget)
	data.Diff = diff
	data.Truncated = truncated

	prompt, err := g.prompts.Render(llm.CodeReviewPrompt, provider, data)
	if err != nil {
		return nil, core.NewGenerationError(op, err)
	}

	g.logger.Info("requesting review",
		"repo", bundle.RepoFullName,
		"pr", bundle.PRNumber,
		"files", len(files),
		"prompt_tokens", g.estimator.Estimate(prompt),
		"truncated", truncated,
		"provider", g.model.Provider(),
	)

	raw, err := g.model.Complete(ctx, prompt)
	if err != nil {
		return nil, core.NewGenerationError(op, err)
	}

	body := cleanModelOutput(raw)
	if body == "" {
		return nil, core.NewGenerationError(op, fmt.Errorf("model returned an empty review"))
	}

	return &core.ReviewResult{
		PRNumber:    bundle.PRNumber,
		HeadSHA:     bundle.HeadSHA,
		Body:        body,
		GeneratedAt: time.Now(),
	}, nil
}

func reviewableFiles(bundle *core.DiffBundle, repoCfg *core.RepoConfig, logger *slog.Logger) []core.ChangedFile {
	var files []core.ChangedFile
	for _, f := range bundle.Files {
		if f.PatchOmitted || f.Patch == "" {
			continue
		}
		if repoCfg.Excludes(f.Path) {
			logger.Debug("excluding file from review", "path", f.Path)
			continue
		}
		files = append(files, f)
	}
	return files
}

type diffSection struct {
	file    core.ChangedFile
	patch   string
	dropped bool
}

// assembleDiff serializes the files in host order. When the result exceeds
// the budget, the files with the most added lines lose their later hunks
// first, then are dropped entirely, until the diff fits.
func (g *Generator) assembleDiff(files []core.ChangedFile, budget int) (string, bool) {
	sections := make([]diffSection, len(files))
	for i, f := range files {
		sections[i] = diffSection{file: f, patch: f.Patch}
	}

	if g.sectionTokens(sections) <= budget {
		return renderSections(sections), false
	}

	order := make([]int, len(sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa, fb := sections[order[a]].file, sections[order[b]].file
		if fa.Additions != fb.Additions {
			return fa.Additions > fb.Additions
		}
		return len(fa.Patch) > len(fb.Patch)
	})

	for _, idx := range order {
		if g.sectionTokens(sections) <= budget {
			break
		}
		hunks := splitHunks(sections[idx].patch)
		if len(hunks) > 1 {
			sections[idx].patch = hunks[0] + "\n" + omittedHunksMarker
		}
	}

	for _, idx := range order {
		if g.sectionTokens(sections) <= budget {
			break
		}
		sections[idx].dropped = true
	}

	return renderSections(sections), true
}

func (g *Generator) sectionTokens(sections []diffSection) int {
	return g.estimator.Estimate(renderSections(sections))
}

func renderSections(sections []diffSection) string {
	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString("File: ")
		sb.WriteString(s.file.Path)
		sb.WriteByte('\n')
		if s.dropped {
			sb.WriteString(droppedFileMarker)
		} else {
			sb.WriteString(s.patch)
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// cleanModelOutput trims the response and unwraps it when the model returned
// the whole review inside one markdown fence.
func cleanModelOutput(raw string) string {
	out := strings.TrimSpace(raw)
	if strings.HasPrefix(out, "```") && strings.HasSuffix(out, "```") {
		if idx := strings.Index(out, "\n"); idx != -1 {
			inner := strings.TrimSuffix(out[idx+1:], "```")
			out = strings.TrimSpace(inner)
		}
	}
	return out
}
