package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"go.uber.org/zap"
)

// RefineryService 提示词优化服务
// 确定性候选搜索：对当前提示词生成若干候选变体，用示例覆盖度打分取最优
// 优化结果走常规"持锁提交"路径写入新版本；无改进时保留原文不提交
type RefineryService interface {
	// Optimize 基于调用方提供的示例优化提示词
	// 要求调用方已持有 prompt_text 字段锁；iterations 控制候选数量上限
	Optimize(ctx context.Context, workspaceID, actorID string, examples []OptimizationExample, iterations int) (*OptimizeResultDTO, error)
}

// OptimizationExample 优化示例：一条输入与期望输出
type OptimizationExample struct {
	InputText      string `json:"inputText"`
	ExpectedOutput string `json:"expectedOutput"`
}

// OptimizeResultDTO 优化结果
// Improved 为 false 时未产生新版本，PromptText 为原始提示词
type OptimizeResultDTO struct {
	Improved   bool        `json:"improved"`
	PromptText string      `json:"promptText"`
	Score      float64     `json:"score"`
	Version    *VersionDTO `json:"version,omitempty"`
}

const (
	optimizeDefaultIterations = 10
	optimizeMaxIterations     = 50
	optimizeMaxExamples       = 32
)

// refineryService 实现 RefineryService 接口
type refineryService struct {
	versions   VersionService
	workspaces WorkspaceService
	logger     *zap.Logger
}

// NewRefineryService 创建 RefineryService 实例
func NewRefineryService(versions VersionService, workspaces WorkspaceService, logger *zap.Logger) RefineryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &refineryService{
		versions:   versions,
		workspaces: workspaces,
		logger:     logger,
	}
}

// Optimize 基于示例优化提示词
func (s *refineryService) Optimize(ctx context.Context, workspaceID, actorID string, examples []OptimizationExample, iterations int) (*OptimizeResultDTO, error) {
	ws, err := s.workspaces.MustGet(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.ReadOnly {
		commitRejectedTotal.WithLabelValues("readonly").Inc()
		return nil, code.ErrorReadOnlyMode
	}
	if len(examples) == 0 {
		return nil, code.ErrorInvalidParams.WithDetails("at least one optimization example is required")
	}
	if len(examples) > optimizeMaxExamples {
		examples = examples[:optimizeMaxExamples]
	}
	if iterations <= 0 {
		iterations = optimizeDefaultIterations
	}
	if iterations > optimizeMaxIterations {
		iterations = optimizeMaxIterations
	}

	head, err := s.versions.Head(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	current := head.Content.PromptText
	if strings.TrimSpace(current) == "" {
		return nil, code.ErrorOptimizeFailed.WithDetails("prompt text is empty")
	}

	best, score := searchCandidates(current, examples, iterations)
	if best == current {
		// 没有得分更高的候选，保留原始提示词
		s.logger.Info("prompt optimization produced no improvement",
			zap.String("workspaceId", workspaceID),
			zap.String("actorId", actorID),
			zap.Float64("score", score))
		return &OptimizeResultDTO{
			Improved:   false,
			PromptText: current,
			Score:      score,
		}, nil
	}

	version, err := s.versions.Commit(ctx, workspaceID, actorID, &CommitParams{
		Message:    fmt.Sprintf("refinery: optimized prompt over %d examples", len(examples)),
		PromptText: &best,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("prompt optimized and committed",
		zap.String("workspaceId", workspaceID),
		zap.String("versionId", version.ID),
		zap.Float64("score", score))

	return &OptimizeResultDTO{
		Improved:   true,
		PromptText: best,
		Score:      score,
		Version:    version,
	}, nil
}

var blankRunPattern = regexp.MustCompile(`\n{3,}`)

// normalizePrompt 规整提示词：去除行尾空白，压缩连续空行
func normalizePrompt(prompt string) string {
	lines := strings.Split(prompt, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	out = blankRunPattern.ReplaceAllString(out, "\n\n")
	return strings.TrimRight(out, "\n")
}

// exampleBlock 将前 n 条示例编排为 few-shot 文本块
func exampleBlock(examples []OptimizationExample, n int) string {
	var b strings.Builder
	b.WriteString("Examples:")
	for i := 0; i < n && i < len(examples); i++ {
		b.WriteString("\n\nInput: ")
		b.WriteString(strings.TrimSpace(examples[i].InputText))
		b.WriteString("\nOutput: ")
		b.WriteString(strings.TrimSpace(examples[i].ExpectedOutput))
	}
	return b.String()
}

// buildCandidates 生成候选变体：原文、规整版、规整版 + 不同数量的示例块
// 候选生成完全确定，输入相同则输出相同
func buildCandidates(current string, examples []OptimizationExample, iterations int) []string {
	normalized := normalizePrompt(current)

	candidates := []string{current}
	if normalized != current && normalized != "" {
		candidates = append(candidates, normalized)
	}

	base := normalized
	if base == "" {
		base = current
	}
	maxShots := iterations
	if maxShots > len(examples) {
		maxShots = len(examples)
	}
	for n := 1; n <= maxShots; n++ {
		candidate := base
		if candidate != "" {
			candidate += "\n\n"
		}
		candidate += exampleBlock(examples, n)
		candidates = append(candidates, candidate)
	}
	return candidates
}

// searchCandidates 对候选集打分并返回最优者
// 得分相同取先生成的候选，保证结果确定；原文候选始终参与评分
func searchCandidates(current string, examples []OptimizationExample, iterations int) (string, float64) {
	best := current
	bestScore := scoreCandidate(current, examples)

	for _, candidate := range buildCandidates(current, examples, iterations) {
		score := scoreCandidate(candidate, examples)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best, bestScore
}

// scoreCandidate 示例覆盖度评分
// 每条示例按期望输出词项在候选文本中的出现比例计分，取均值
func scoreCandidate(candidate string, examples []OptimizationExample) float64 {
	if len(examples) == 0 {
		return 0
	}
	haystack := strings.ToLower(candidate)

	total := 0.0
	for _, ex := range examples {
		terms := strings.Fields(strings.ToLower(ex.ExpectedOutput))
		if len(terms) == 0 {
			continue
		}
		hit := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				hit++
			}
		}
		total += float64(hit) / float64(len(terms))
	}
	return total / float64(len(examples))
}

// 确保 refineryService 实现了 RefineryService 接口
var _ RefineryService = (*refineryService)(nil)
