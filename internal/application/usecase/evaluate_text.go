package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/riskengine/internal/application/dto"
	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/port"
	"github.com/veridex/riskengine/internal/domain/service"
	"github.com/veridex/riskengine/internal/domain/valueobject"
)

// ErrAuditWriteFailure means the verdict could not be recorded. No verdict is
// ever released without its audit record.
var ErrAuditWriteFailure = errors.New("audit record could not be written")

// EvaluateText runs the full evaluation pipeline: quality gate, ensemble,
// calibration, uncertainty, governance policy, audit, events, drift.
type EvaluateText struct {
	gate       *service.DataQualityGate
	ensemble   *service.SignalEnsemble
	calibrator *service.Calibrator
	estimator  service.UncertaintyEstimator
	classifier *service.PoliticalClassifier
	policy     *service.GovernancePolicy
	registry   port.ModelRegistry
	audit      port.AuditChain
	publisher  port.EventPublisher
	drift      *service.DriftMonitor
	timeout    time.Duration
	logger     *slog.Logger
}

// NewEvaluateText wires the pipeline. A non-positive timeout falls back to
// the deployed default request budget. A nil drift monitor is allowed when
// scores reach the monitor through the evaluation event stream instead.
func NewEvaluateText(
	gate *service.DataQualityGate,
	ensemble *service.SignalEnsemble,
	calibrator *service.Calibrator,
	estimator service.UncertaintyEstimator,
	classifier *service.PoliticalClassifier,
	policy *service.GovernancePolicy,
	registry port.ModelRegistry,
	audit port.AuditChain,
	publisher port.EventPublisher,
	drift *service.DriftMonitor,
	timeout time.Duration,
	logger *slog.Logger,
) *EvaluateText {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EvaluateText{
		gate:       gate,
		ensemble:   ensemble,
		calibrator: calibrator,
		estimator:  estimator,
		classifier: classifier,
		policy:     policy,
		registry:   registry,
		audit:      audit,
		publisher:  publisher,
		drift:      drift,
		timeout:    timeout,
		logger:     logger,
	}
}

// Execute evaluates one text and returns the audited verdict. Every returned
// verdict, abstentions included, has exactly one audit record behind it.
func (uc *EvaluateText) Execute(ctx context.Context, req dto.EvaluateTextRequest) (dto.EvaluationResponse, error) {
	start := time.Now()

	scanID := req.ScanID
	if scanID == uuid.Nil {
		scanID = uuid.New()
	}

	active, err := uc.registry.Active(domainOrGeneral(req.Domain))
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("failed to resolve active model: %w", err)
	}

	evaluation, err := model.NewEvaluation(scanID, req.Domain, active.Version, active.Hash)
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("failed to open evaluation: %w", err)
	}

	budgetCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	quality := uc.gate.Inspect(req.Text, req.SourceURL)
	flags := uc.classifier.Classify(req.Text, req.Domain)

	// Politically sensitive content is always judged under the stricter
	// policy domain, whatever the caller declared.
	policyDomain := req.Domain
	if flags.PoliticalRiskDetected {
		policyDomain = "political"
	}

	if !quality.Usable {
		decision := uc.policy.Decide(policyDomain, quality, model.EnsembleResult{}, model.CalibrationRecord{}, model.UncertaintyEstimate{})
		return uc.conclude(ctx, evaluation, req.Text, conclusionInput{
			quality:  quality,
			flags:    flags,
			decision: decision,
			started:  start,
		})
	}

	ensembleResult, err := uc.ensemble.Evaluate(budgetCtx, req.Text, policyDomain)
	if err != nil {
		reason, abortErr := uc.degradeReason(ctx, budgetCtx, err)
		if abortErr != nil {
			return dto.EvaluationResponse{}, abortErr
		}
		decision := service.Decision{
			Prediction: valueobject.PredictionHumanReview,
			Verdict:    valueobject.VerdictAbstain,
			Reason:     reason,
			Confidence: 0.5,
		}
		return uc.conclude(ctx, evaluation, req.Text, conclusionInput{
			quality:  quality,
			ensemble: ensembleResult,
			flags:    flags,
			decision: decision,
			started:  start,
		})
	}

	calibration, err := uc.calibrator.Apply(active.Version, ensembleResult.RawScore)
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("failed to calibrate score: %w", err)
	}

	uncertainty := uc.estimator.Estimate(ensembleResult, quality)
	decision := uc.policy.Decide(policyDomain, quality, ensembleResult, calibration, uncertainty)

	response, err := uc.conclude(ctx, evaluation, req.Text, conclusionInput{
		quality:     quality,
		ensemble:    ensembleResult,
		calibration: calibration,
		uncertainty: uncertainty,
		flags:       flags,
		decision:    decision,
		started:     start,
	})
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	if uc.drift != nil {
		uc.drift.Observe(ctx, active.Version, calibration.CalibratedScore)
	}
	return response, nil
}

type conclusionInput struct {
	quality     model.DataQualityReport
	ensemble    model.EnsembleResult
	calibration model.CalibrationRecord
	uncertainty model.UncertaintyEstimate
	flags       model.GovernanceFlags
	decision    service.Decision
	started     time.Time
}

// conclude seals the aggregate, writes the audit record and publishes domain
// events. The audit write is the point of no return: its failure aborts the
// evaluation; a publish failure after it does not.
func (uc *EvaluateText) conclude(ctx context.Context, evaluation *model.Evaluation, text string, in conclusionInput) (dto.EvaluationResponse, error) {
	err := evaluation.Conclude(model.Conclusion{
		Quality:     in.quality,
		Ensemble:    in.ensemble,
		Calibration: in.calibration,
		Uncertainty: in.uncertainty,
		Flags:       in.flags,
		Prediction:  in.decision.Prediction,
		Verdict:     in.decision.Verdict,
		Reason:      in.decision.Reason,
		Confidence:  in.decision.Confidence,
	}, float64(time.Since(in.started).Microseconds())/1000.0)
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("failed to conclude evaluation: %w", err)
	}

	record, err := model.NewAuditRecord(evaluation, model.HashText(text))
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("failed to build audit record: %w", err)
	}

	sealed, err := uc.audit.Append(ctx, record)
	if err != nil {
		uc.logger.Error("audit append failed, verdict withheld",
			"scan_id", evaluation.ScanID(),
			"error", err,
		)
		return dto.EvaluationResponse{}, fmt.Errorf("%w: %v", ErrAuditWriteFailure, err)
	}

	if events := evaluation.DomainEvents(); len(events) > 0 {
		if err := uc.publisher.Publish(ctx, events...); err != nil {
			// The verdict is already audited; losing an event is not fatal.
			uc.logger.Error("failed to publish evaluation events",
				"scan_id", evaluation.ScanID(),
				"error", err,
			)
		}
	}

	uc.logger.Info("evaluation concluded",
		"scan_id", evaluation.ScanID(),
		"prediction", evaluation.Prediction().String(),
		"verdict", evaluation.Verdict().String(),
		"reason", evaluation.Reason(),
		"audit_sequence", sealed.Sequence,
	)

	return dto.FromEvaluation(evaluation, sealed.Sequence), nil
}

// degradeReason classifies an ensemble failure. Caller cancellation aborts
// the request outright; an expired engine budget or a lost quorum degrades to
// an audited abstention.
func (uc *EvaluateText) degradeReason(ctx, budgetCtx context.Context, err error) (string, error) {
	if ctx.Err() != nil {
		return "", fmt.Errorf("evaluation aborted: %w", ctx.Err())
	}
	if budgetCtx.Err() != nil {
		return service.ReasonTimeout, nil
	}
	if errors.Is(err, service.ErrQuorumNotMet) {
		return service.ReasonQuorumNotMet, nil
	}
	return "", fmt.Errorf("ensemble evaluation failed: %w", err)
}

func domainOrGeneral(domain string) string {
	if domain == "" {
		return "general"
	}
	return domain
}
