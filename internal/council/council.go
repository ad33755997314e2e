// Package council implements the three-stage planning council: parallel
// member fan-out, anonymous peer review, and chairman synthesis. The
// fan-out starts one goroutine per member with no concurrency cap, joins
// them with a WaitGroup, and appends results to a mutex-guarded slice.
package council

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexuscore/core/internal/agent/providers"
	"github.com/nexuscore/core/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// VotingStrategy selects how the chairman synthesizes the final answer.
type VotingStrategy string

const (
	ChairmanSynthesis VotingStrategy = "chairman_synthesis"
	HighestScore      VotingStrategy = "highest_score"
	MajorityConsensus VotingStrategy = "majority_consensus"
)

// Member is a single (provider, config) pair participating in a council.
type Member struct {
	ID              string
	Provider        providers.Provider
	MaxMemberTokens int
}

// MemberResponse is one member's answer to the deliberation question.
type MemberResponse struct {
	MemberID  string
	Text      string
	LatencyMS int64
	Usage     providers.TokenUsage
	Cost      float64
	Err       error
}

// PeerReview is one member's review of another member's response.
type PeerReview struct {
	ReviewerIdx int
	ReviewedIdx int
	Score       int
	Reasoning   string
	Strengths   []string
	Weaknesses  []string
}

// Result is the full deliberation outcome.
type Result struct {
	MemberResponses []MemberResponse
	PeerReviews     []PeerReview
	Synthesis       string
	TotalUsage      providers.TokenUsage
	TotalCost       float64
	TotalLatencyMS  int64
}

// Council is an ordered set of members with a designated chairman.
type Council struct {
	Members          []Member
	ChairmanIdx      int
	EnablePeerReview bool

	// Metrics and Tracer are optional; a nil value disables instrumentation.
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// New constructs a Council. At least two members are required. If
// chairmanName is non-empty and matches a member ID, that member becomes
// chairman; otherwise the member with the largest context window is
// chosen.
func New(members []Member, chairmanName string, enablePeerReview bool) (*Council, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("council requires at least 2 members, got %d", len(members))
	}
	chairman := 0
	if chairmanName != "" {
		found := false
		for i, m := range members {
			if m.ID == chairmanName {
				chairman = i
				found = true
				break
			}
		}
		if !found {
			chairman = largestContextWindowIdx(members)
		}
	} else {
		chairman = largestContextWindowIdx(members)
	}
	return &Council{Members: members, ChairmanIdx: chairman, EnablePeerReview: enablePeerReview}, nil
}

func largestContextWindowIdx(members []Member) int {
	best := 0
	bestWindow := -1
	for i, m := range members {
		w := 0
		if m.Provider != nil {
			w = m.Provider.ContextWindow()
		}
		if w > bestWindow {
			bestWindow = w
			best = i
		}
	}
	return best
}

// Deliberate runs the three-stage protocol: fan-out, optional peer review,
// synthesis.
func (c *Council) Deliberate(ctx context.Context, question string, strategy VotingStrategy) (*Result, error) {
	start := time.Now()

	if c.Tracer != nil {
		var span trace.Span
		ctx, span = c.Tracer.Start(ctx, "council.deliberate")
		defer span.End()
	}

	responses := timedStage(c, ctx, "query", func(ctx context.Context) []MemberResponse {
		return c.stageQuery(ctx, question)
	})

	survivors := 0
	for _, r := range responses {
		if r.Err == nil {
			survivors++
		}
	}
	if survivors == 0 {
		c.recordOutcome("error")
		return nil, fmt.Errorf("council deliberation failed: all %d members errored", len(responses))
	}

	var reviews []PeerReview
	if c.EnablePeerReview && len(c.Members) >= 3 {
		reviews = timedStage(c, ctx, "peer_review", func(ctx context.Context) []PeerReview {
			return c.stagePeerReview(ctx, question, responses)
		})
	}

	var synthesis string
	var synthErr error
	func() {
		if c.Metrics != nil {
			timer := prometheusTimer(c.Metrics.CouncilStageDuration.WithLabelValues("synthesis"))
			defer timer()
		}
		synthesis, synthErr = c.stageSynthesis(ctx, question, responses, reviews, strategy)
	}()
	if synthErr != nil {
		c.recordOutcome("error")
		return nil, fmt.Errorf("council synthesis failed: %w", synthErr)
	}
	c.recordOutcome("success")

	var totalUsage providers.TokenUsage
	var totalCost float64
	for _, r := range responses {
		if r.Err != nil {
			continue
		}
		totalUsage.InputTokens += r.Usage.InputTokens
		totalUsage.OutputTokens += r.Usage.OutputTokens
		totalCost += r.Cost
	}
	totalUsage.OutputTokens += estimateTokens(synthesis)

	return &Result{
		MemberResponses: responses,
		PeerReviews:     reviews,
		Synthesis:       synthesis,
		TotalUsage:      totalUsage,
		TotalCost:       totalCost,
		TotalLatencyMS:  time.Since(start).Milliseconds(),
	}, nil
}

func estimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4.0))
}

// stageQuery fans the question out to every member concurrently at
// temperature 0.7, capped by each member's MaxMemberTokens. Responses are
// appended in completion order, not submission order.
func (c *Council) stageQuery(ctx context.Context, question string) []MemberResponse {
	var (
		mu      sync.Mutex
		results []MemberResponse
		wg      sync.WaitGroup
	)

	for i, m := range c.Members {
		wg.Add(1)
		go func(idx int, member Member) {
			defer wg.Done()
			begin := time.Now()

			req := providers.CompletionRequest{
				Messages:    []providers.Message{{Role: "user", Content: question}},
				Temperature: 0.7,
				MaxTokens:   member.MaxMemberTokens,
			}

			var resp MemberResponse
			resp.MemberID = member.ID
			if member.Provider == nil {
				resp.Err = fmt.Errorf("member %s has no provider", member.ID)
			} else {
				result, err := member.Provider.Complete(ctx, req)
				resp.LatencyMS = time.Since(begin).Milliseconds()
				if err != nil {
					resp.Err = err
				} else {
					resp.Text = result.Message.Content
					resp.Usage = result.Usage
					in, out := member.Provider.CostPerToken()
					resp.Cost = float64(result.Usage.InputTokens)*in + float64(result.Usage.OutputTokens)*out
				}
			}

			mu.Lock()
			results = append(results, resp)
			mu.Unlock()
		}(i, m)
	}
	wg.Wait()
	return results
}

// stagePeerReview has every surviving member review every other surviving
// member's response under anonymous positional labels (Response A, B, …).
// Reviews run concurrently and are sorted by (reviewer_idx, reviewed_idx)
// before return.
func (c *Council) stagePeerReview(ctx context.Context, question string, responses []MemberResponse) []PeerReview {
	var (
		mu      sync.Mutex
		reviews []PeerReview
		wg      sync.WaitGroup
	)

	failed := make(map[string]bool)
	for _, r := range responses {
		if r.Err != nil {
			failed[r.MemberID] = true
		}
	}

	for ri, reviewer := range c.Members {
		if failed[reviewer.ID] {
			continue
		}
		for vi, reviewed := range responses {
			if reviewed.MemberID == reviewer.ID || reviewed.Err != nil {
				continue
			}
			wg.Add(1)
			go func(reviewerIdx int, reviewerMember Member, reviewedIdx int, reviewedResp MemberResponse) {
				defer wg.Done()

				prompt := buildPeerReviewPrompt(question, reviewedIdx, reviewedResp.Text)
				req := providers.CompletionRequest{
					Messages:    []providers.Message{{Role: "user", Content: prompt}},
					Temperature: 0.3,
					MaxTokens:   400,
				}

				review := PeerReview{ReviewerIdx: reviewerIdx, ReviewedIdx: reviewedIdx}
				if reviewerMember.Provider != nil {
					result, err := reviewerMember.Provider.Complete(ctx, req)
					if err == nil {
						parsed := ParsePeerReview(result.Message.Content)
						review.Score = parsed.Score
						review.Reasoning = parsed.Reasoning
						review.Strengths = parsed.Strengths
						review.Weaknesses = parsed.Weaknesses
					} else {
						review.Score = 5
					}
				} else {
					review.Score = 5
				}

				mu.Lock()
				reviews = append(reviews, review)
				mu.Unlock()
			}(ri, reviewer, vi, reviewed)
		}
	}
	wg.Wait()

	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].ReviewerIdx != reviews[j].ReviewerIdx {
			return reviews[i].ReviewerIdx < reviews[j].ReviewerIdx
		}
		return reviews[i].ReviewedIdx < reviews[j].ReviewedIdx
	})
	return reviews
}

func responseLabel(idx int) string {
	return fmt.Sprintf("Response %c", 'A'+idx)
}

func buildPeerReviewPrompt(question string, reviewedIdx int, text string) string {
	var b strings.Builder
	b.WriteString("You are reviewing one candidate answer to the following question. ")
	b.WriteString("Evaluate it strictly and respond in exactly this format:\n\n")
	b.WriteString("SCORE: <1..10>\nREASONING: <text>\nSTRENGTHS:\n- <item>\nWEAKNESSES:\n- <item>\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(responseLabel(reviewedIdx))
	b.WriteString(":\n")
	b.WriteString(text)
	return b.String()
}

func newMemberID() string {
	return uuid.NewString()
}

// timedStage runs fn and, if metrics are configured, observes its duration
// under the given stage label.
func timedStage[T any](c *Council, ctx context.Context, stage string, fn func(context.Context) T) T {
	if c.Metrics == nil {
		return fn(ctx)
	}
	timer := prometheusTimer(c.Metrics.CouncilStageDuration.WithLabelValues(stage))
	defer timer()
	return fn(ctx)
}

func prometheusTimer(obs prometheus.Observer) func() {
	start := time.Now()
	return func() { obs.Observe(time.Since(start).Seconds()) }
}

func (c *Council) recordOutcome(outcome string) {
	if c.Metrics != nil {
		c.Metrics.CouncilDeliberations.WithLabelValues(outcome).Inc()
	}
}
