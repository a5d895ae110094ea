package service

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/veridex/riskengine/internal/domain/event"
	"github.com/veridex/riskengine/internal/domain/port"
	"github.com/veridex/riskengine/internal/domain/valueobject"
)

// Drift detection thresholds on the population stability index and the
// Kullback-Leibler divergence of calibrated score distributions.
const (
	psiWarning  = 0.10
	psiCritical = 0.25
	klWarning   = 0.05
	klCritical  = 0.10

	driftBins = 10

	// driftEps clamps empty histogram bins so the ratios stay finite.
	driftEps = 1e-4
)

// DriftStatus is one model version's current drift reading.
type DriftStatus struct {
	ModelVersion string                 `json:"model_version"`
	State        valueobject.DriftState `json:"-"`
	StateLabel   string                 `json:"state"`
	PSI          float64                `json:"psi"`
	KLDivergence float64                `json:"kl_divergence"`
	WindowFill   int                    `json:"window_fill"`
	WindowSize   int                    `json:"window_size"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// versionWindow tracks one model version's rolling score window.
type versionWindow struct {
	scores    []float64
	next      int
	full      bool
	reference []float64
	state     valueobject.DriftState
	psi       float64
	kl        float64
	updatedAt time.Time
}

// DriftMonitor watches calibrated score distributions per model version and
// reports when they move away from their reference distribution. It is fed
// in-process after each audited evaluation and out-of-band from the
// evaluation event stream.
type DriftMonitor struct {
	windowSize int
	publisher  port.EventPublisher
	logger     *slog.Logger

	mu       sync.Mutex
	versions map[string]*versionWindow
}

// NewDriftMonitor creates a monitor with the given rolling window size.
func NewDriftMonitor(windowSize int, publisher port.EventPublisher, logger *slog.Logger) *DriftMonitor {
	if windowSize <= 0 {
		windowSize = 500
	}
	return &DriftMonitor{
		windowSize: windowSize,
		publisher:  publisher,
		logger:     logger,
		versions:   make(map[string]*versionWindow),
	}
}

// SetReference pins a version's reference distribution from offline data.
// Without one, the first full window becomes the reference.
func (m *DriftMonitor) SetReference(version string, scores []float64) {
	if len(scores) == 0 {
		return
	}
	ref := normalizedHistogram(scores)

	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.window(version)
	w.reference = ref
}

// Observe records one calibrated score and re-evaluates the version's drift
// state. State transitions are published; publish failures are logged only.
func (m *DriftMonitor) Observe(ctx context.Context, version string, calibratedScore float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.window(version)
	w.scores[w.next] = clampUnit(calibratedScore)
	w.next = (w.next + 1) % m.windowSize
	if w.next == 0 {
		w.full = true
	}
	w.updatedAt = time.Now().UTC()

	fill := m.fill(w)
	// Readings on a thin window are noise.
	if fill < m.windowSize/2 {
		return
	}

	current := normalizedHistogram(w.scores[:fill])
	if w.reference == nil {
		if w.full {
			w.reference = current
		}
		return
	}

	w.psi = populationStabilityIndex(w.reference, current)
	w.kl = klDivergence(w.reference, current)

	next := classifyDrift(w.psi, w.kl)
	if next.Equal(w.state) {
		return
	}

	prev := w.state
	w.state = next
	m.logger.Warn("drift state changed",
		"model_version", version,
		"from", prev.String(),
		"to", next.String(),
		"psi", w.psi,
		"kl_divergence", w.kl,
	)
	if m.publisher != nil {
		ev := event.DriftStateChanged{
			ModelVersion: version,
			From:         prev.String(),
			To:           next.String(),
			PSI:          w.psi,
			KLDivergence: w.kl,
			ChangedAt:    w.updatedAt,
		}
		if err := m.publisher.Publish(ctx, ev); err != nil {
			m.logger.Error("failed to publish drift event", "error", err)
		}
	}
}

// Status reports every tracked version's current reading.
func (m *DriftMonitor) Status() []DriftStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]DriftStatus, 0, len(m.versions))
	for version, w := range m.versions {
		statuses = append(statuses, DriftStatus{
			ModelVersion: version,
			State:        w.state,
			StateLabel:   w.state.String(),
			PSI:          w.psi,
			KLDivergence: w.kl,
			WindowFill:   m.fill(w),
			WindowSize:   m.windowSize,
			UpdatedAt:    w.updatedAt,
		})
	}
	return statuses
}

// StatusFor reports one version's reading.
func (m *DriftMonitor) StatusFor(version string) (DriftStatus, bool) {
	for _, s := range m.Status() {
		if s.ModelVersion == version {
			return s, true
		}
	}
	return DriftStatus{}, false
}

func (m *DriftMonitor) window(version string) *versionWindow {
	w, ok := m.versions[version]
	if !ok {
		w = &versionWindow{
			scores: make([]float64, m.windowSize),
			state:  valueobject.DriftStable,
		}
		m.versions[version] = w
	}
	return w
}

func (m *DriftMonitor) fill(w *versionWindow) int {
	if w.full {
		return m.windowSize
	}
	return w.next
}

func classifyDrift(psi, kl float64) valueobject.DriftState {
	switch {
	case psi >= psiCritical || kl >= klCritical:
		return valueobject.DriftCritical
	case psi >= psiWarning || kl >= klWarning:
		return valueobject.DriftWarning
	default:
		return valueobject.DriftStable
	}
}

// normalizedHistogram buckets scores into driftBins over [0,1] with epsilon
// clamping so every bin has positive mass.
func normalizedHistogram(scores []float64) []float64 {
	counts := make([]float64, driftBins)
	for _, s := range scores {
		idx := int(clampUnit(s) * driftBins)
		if idx == driftBins {
			idx = driftBins - 1
		}
		counts[idx]++
	}

	total := float64(len(scores))
	hist := make([]float64, driftBins)
	for i, c := range counts {
		p := c / total
		if p < driftEps {
			p = driftEps
		}
		hist[i] = p
	}
	return hist
}

func populationStabilityIndex(reference, current []float64) float64 {
	var psi float64
	for i := range reference {
		psi += (current[i] - reference[i]) * math.Log(current[i]/reference[i])
	}
	return psi
}

func klDivergence(reference, current []float64) float64 {
	var kl float64
	for i := range reference {
		kl += reference[i] * math.Log(reference[i]/current[i])
	}
	return kl
}
