package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nexuscore/core/internal/agent"
	"github.com/nexuscore/core/internal/agent/providers"
	"github.com/nexuscore/core/internal/agent/routing"
	"github.com/nexuscore/core/internal/config"
	"github.com/nexuscore/core/internal/council"
	"github.com/nexuscore/core/internal/observability"
)

// llmProviders builds both the streaming agent.LLMProvider map used by the
// router and the synchronous providers.Provider map used by the council,
// from whichever of anthropic/google/openrouter are configured with an
// api_key. Unconfigured or unrecognized provider names are skipped.
func llmProviders(cfg config.LLMConfig) (map[string]agent.LLMProvider, map[string]providers.Provider, error) {
	streaming := make(map[string]agent.LLMProvider)
	sync := make(map[string]providers.Provider)

	for name, pc := range cfg.Providers {
		if strings.TrimSpace(pc.APIKey) == "" {
			continue
		}
		switch strings.ToLower(name) {
		case "anthropic":
			p, err := providers.NewAnthropicProvider(providers.AnthropicConfig{APIKey: pc.APIKey, BaseURL: pc.BaseURL})
			if err != nil {
				return nil, nil, fmt.Errorf("anthropic provider: %w", err)
			}
			streaming[name] = p
			sync[name] = providers.NewStreamingAdapter(p, 0.000003, 0.000015, 200000)
		case "google":
			p, err := providers.NewGoogleProvider(providers.GoogleConfig{APIKey: pc.APIKey})
			if err != nil {
				return nil, nil, fmt.Errorf("google provider: %w", err)
			}
			streaming[name] = p
			sync[name] = providers.NewStreamingAdapter(p, 0.0000005, 0.0000015, 1000000)
		case "openrouter":
			p, err := providers.NewOpenRouterProvider(providers.OpenRouterConfig{APIKey: pc.APIKey, DefaultModel: pc.DefaultModel})
			if err != nil {
				return nil, nil, fmt.Errorf("openrouter provider: %w", err)
			}
			streaming[name] = p
			sync[name] = providers.NewStreamingAdapter(p, 0.000001, 0.000003, 128000)
		default:
			slog.Warn("skipping unrecognized llm provider in config", "provider", name)
		}
	}

	return streaming, sync, nil
}

func buildRouter(cfg config.LLMConfig, metrics *observability.Metrics) (*routing.Router, error) {
	streaming, _, err := llmProviders(cfg)
	if err != nil {
		return nil, err
	}
	if len(streaming) == 0 {
		return nil, fmt.Errorf("no llm providers configured with an api_key")
	}
	r := routing.NewRouter(routing.Config{
		DefaultProvider: cfg.DefaultProvider,
		Fallback:        firstFallback(cfg.FallbackChain),
	}, streaming)
	r.Metrics = metrics
	return r, nil
}

func firstFallback(chain []string) routing.Target {
	if len(chain) == 0 {
		return routing.Target{}
	}
	return routing.Target{Provider: chain[0]}
}

func buildCouncil(cfg config.Config, obs *observability.Metrics, tracer *observability.Tracer) (*council.Council, error) {
	_, sync, err := llmProviders(cfg.LLM)
	if err != nil {
		return nil, err
	}

	memberNames := cfg.Council.Members
	if len(memberNames) == 0 {
		for name := range sync {
			memberNames = append(memberNames, name)
		}
	}

	var members []council.Member
	for _, name := range memberNames {
		p, ok := sync[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("council member %q has no configured provider", name)
		}
		members = append(members, council.Member{ID: name, Provider: p, MaxMemberTokens: cfg.Council.MaxMemberTokens})
	}

	c, err := council.New(members, cfg.Council.Chairman, cfg.Council.EnablePeerReview)
	if err != nil {
		return nil, err
	}
	c.Metrics = obs
	c.Tracer = tracer
	return c, nil
}
