package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/port"
)

// maxStddev is the largest possible standard deviation of values in [0,1],
// used to normalize dispersion into an agreement score.
const maxStddev = 0.5

// EnsembleConfig holds the aggregation parameters.
type EnsembleConfig struct {
	// Weights maps provider ID to its default aggregation weight.
	Weights map[string]float64

	// DomainWeights optionally overrides Weights per request domain.
	DomainWeights map[string]map[string]float64

	// MinQuorum is the minimum number of responding providers required
	// before an aggregate is trusted.
	MinQuorum int

	// ProviderTimeout is each provider's share of the request budget.
	ProviderTimeout time.Duration
}

// SignalEnsemble queries independent providers in parallel and aggregates
// their raw scores into a weighted mean with an agreement measure.
type SignalEnsemble struct {
	providers []port.SignalProvider
	cfg       EnsembleConfig
	logger    *slog.Logger
}

// NewSignalEnsemble creates an ensemble over the configured providers.
func NewSignalEnsemble(providers []port.SignalProvider, cfg EnsembleConfig, logger *slog.Logger) (*SignalEnsemble, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one signal provider is required")
	}
	if cfg.MinQuorum <= 0 {
		cfg.MinQuorum = 1
	}
	if cfg.MinQuorum > len(providers) {
		return nil, fmt.Errorf("min quorum %d exceeds provider count %d", cfg.MinQuorum, len(providers))
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 2 * time.Second
	}
	// A partially weighted ensemble is a misconfiguration: a provider
	// without a weight would need an arbitrary one at aggregation time.
	if len(cfg.Weights) > 0 {
		for _, p := range providers {
			if cfg.Weights[p.ProviderID()] <= 0 {
				return nil, fmt.Errorf("provider %q has no positive weight configured", p.ProviderID())
			}
		}
	}
	for domain, override := range cfg.DomainWeights {
		for _, p := range providers {
			if override[p.ProviderID()] <= 0 {
				return nil, fmt.Errorf("domain %q weight override misses provider %q", domain, p.ProviderID())
			}
		}
	}
	return &SignalEnsemble{providers: providers, cfg: cfg, logger: logger}, nil
}

// Evaluate fans out to every provider under its own timeout and aggregates
// whichever signals come back. A failing provider is excluded and flagged,
// never propagated, unless the quorum is lost.
func (e *SignalEnsemble) Evaluate(ctx context.Context, text, domain string) (model.EnsembleResult, error) {
	type outcome struct {
		signal model.Signal
		err    error
	}

	outcomes := make([]outcome, len(e.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range e.providers {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, e.cfg.ProviderTimeout)
			defer cancel()

			start := time.Now()
			score, err := p.Score(callCtx, text)
			if err != nil {
				outcomes[i] = outcome{err: err}
				// Absorbed: one provider must not fail the request.
				return nil
			}
			outcomes[i] = outcome{signal: model.Signal{
				ProviderID: p.ProviderID(),
				RawScore:   clampUnit(score),
				LatencyMS:  float64(time.Since(start).Microseconds()) / 1000.0,
			}}
			return nil
		})
	}
	// Goroutines never return errors; Wait only joins them.
	_ = g.Wait()

	weights := e.weightsFor(domain)

	var (
		signals []model.Signal
		failed  []string
		used    = make(map[string]float64)
	)
	for i, p := range e.providers {
		out := outcomes[i]
		if out.err != nil || out.signal.ProviderID == "" {
			failed = append(failed, p.ProviderID())
			if out.err != nil {
				e.logger.Warn("signal provider excluded",
					"provider", p.ProviderID(),
					"error", out.err,
				)
			}
			continue
		}
		signals = append(signals, out.signal)
		used[out.signal.ProviderID] = weights[out.signal.ProviderID]
	}

	if len(signals) < e.cfg.MinQuorum {
		return model.EnsembleResult{Signals: signals, Failed: failed},
			fmt.Errorf("%w: %d of %d providers responded (quorum %d)",
				ErrQuorumNotMet, len(signals), len(e.providers), e.cfg.MinQuorum)
	}

	return model.EnsembleResult{
		Signals:     signals,
		RawScore:    weightedMean(signals, used),
		Agreement:   agreement(signals),
		WeightsUsed: used,
		Failed:      failed,
	}, nil
}

// ProviderIDs returns the configured provider order.
func (e *SignalEnsemble) ProviderIDs() []string {
	ids := make([]string, len(e.providers))
	for i, p := range e.providers {
		ids[i] = p.ProviderID()
	}
	return ids
}

func (e *SignalEnsemble) weightsFor(domain string) map[string]float64 {
	if override, ok := e.cfg.DomainWeights[domain]; ok {
		return override
	}
	return e.cfg.Weights
}

// weightedMean renormalizes weights over the responding quorum so that a
// dropped provider does not deflate the aggregate. An unweighted quorum
// falls back to the plain mean as a whole, never per member.
func weightedMean(signals []model.Signal, weights map[string]float64) float64 {
	if len(signals) == 0 {
		return 0
	}
	for _, s := range signals {
		if weights[s.ProviderID] <= 0 {
			return plainMean(signals)
		}
	}

	var sum, total float64
	for _, s := range signals {
		w := weights[s.ProviderID]
		sum += s.RawScore * w
		total += w
	}
	return clampUnit(sum / total)
}

func plainMean(signals []model.Signal) float64 {
	var sum float64
	for _, s := range signals {
		sum += s.RawScore
	}
	return clampUnit(sum / float64(len(signals)))
}

// agreement is one minus the normalized dispersion across signals.
func agreement(signals []model.Signal) float64 {
	if len(signals) < 2 {
		return 1.0
	}

	var mean float64
	for _, s := range signals {
		mean += s.RawScore
	}
	mean /= float64(len(signals))

	var variance float64
	for _, s := range signals {
		d := s.RawScore - mean
		variance += d * d
	}
	variance /= float64(len(signals))

	return clampUnit(1.0 - math.Sqrt(variance)/maxStddev)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
