package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptscan/internal/config"
	"receiptscan/internal/engine"
)

// stubEngine returns canned text or a canned error.
type stubEngine struct {
	name  string
	text  string
	err   error
	calls atomic.Int32
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Extract(ctx context.Context, image []byte) (*engine.Result, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &engine.Result{Text: s.text, Confidence: 0.9}, nil
}

const goodReceipt = `КАУФЛАНД БЪЛГАРИЯ ЕООД
СОФИЯ БУЛ ЧЕРНИ ВРЪХ 32
ЕИК 131129282
26.08.2026 14:32
КАСОВ БОН
БАНАНИ    2.50 Б
ХЛЯБ ДОБРУДЖА    1.20 Б
ОБЩА СУМА 3.70
В БРОЙ 5.00
РЕСТО 1.30`

const partialReceipt = `КАУФЛАНД БЪЛГАРИЯ ЕООД
СОФИЯ БУЛ ЧЕРНИ ВРЪХ 32
ЕИК 131129282
26.08.2026 14:32
КАСОВ БОН
БАНАНИ    2.50 Б
ОБЩА СУМА 3.70
В БРОЙ 5.00
РЕСТО 1.30`

// junkImage is undecodable, so a single "original" variant is produced and
// every engine is called exactly once.
var junkImage = []byte("definitely not an image")

func testConfig() *config.Config {
	return &config.Config{
		EngineTimeout:  5 * time.Second,
		VariantWorkers: 2,
		Thresholds:     config.DefaultThresholds(),
	}
}

func TestProcessReconcilesTwoEngines(t *testing.T) {
	a := &stubEngine{name: "vision", text: goodReceipt}
	b := &stubEngine{name: "openai", text: partialReceipt}

	p, err := New(testConfig(), []engine.Engine{a, b})
	require.NoError(t, err)

	res, err := p.ProcessImage(context.Background(), junkImage)
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.Reconciliation)
	assert.Len(t, res.Reconciliation.FinalItems, 2)
	assert.InDelta(t, 3.70, res.Reconciliation.FinalTotal, 0.001)

	require.NotNil(t, res.Receipt)
	assert.Equal(t, "Кауфланд", res.Receipt.Retailer)
	assert.Equal(t, "vision", res.Receipt.Metadata.Engine)
	assert.NotEmpty(t, res.Receipt.Metadata.RunID)
	assert.InDelta(t, 0.9, res.Receipt.Metadata.EngineConf, 0.001)

	assert.Equal(t, int32(1), a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestProcessSurvivesOneEngineFailure(t *testing.T) {
	ok := &stubEngine{name: "vision", text: goodReceipt}
	broken := &stubEngine{name: "documentai", err: engine.ErrQuotaExceeded}

	p, err := New(testConfig(), []engine.Engine{ok, broken})
	require.NoError(t, err)

	res, err := p.ProcessImage(context.Background(), junkImage)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "vision", res.Receipt.Metadata.Engine)
	require.NotNil(t, res.Reconciliation)
	assert.Len(t, res.Reconciliation.FinalItems, 2)
}

func TestProcessAllEnginesFail(t *testing.T) {
	a := &stubEngine{name: "vision", err: engine.ErrExtractionFailed}
	b := &stubEngine{name: "openai", err: errors.New("api unreachable")}

	p, err := New(testConfig(), []engine.Engine{a, b})
	require.NoError(t, err)

	res, err := p.ProcessImage(context.Background(), junkImage)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "vision")
	assert.Contains(t, err.Error(), "openai")
}

func TestProcessHonorsContextCancellation(t *testing.T) {
	eng := &stubEngine{name: "vision", text: goodReceipt}

	p, err := New(testConfig(), []engine.Engine{eng})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.ProcessImage(ctx, junkImage)
	require.Error(t, err)
}

func TestNewRequiresEngines(t *testing.T) {
	_, err := New(testConfig(), nil)
	assert.ErrorIs(t, err, ErrNoEngines)
}

func TestProcessSingleEnginePath(t *testing.T) {
	eng := &stubEngine{name: "tesseract", text: goodReceipt}

	p, err := New(testConfig(), []engine.Engine{eng})
	require.NoError(t, err)

	res, err := p.ProcessImage(context.Background(), junkImage)
	require.NoError(t, err)

	require.NotNil(t, res.Reconciliation)
	assert.Empty(t, res.Reconciliation.Discrepancies)
	assert.Len(t, res.Reconciliation.FinalItems, 2)
	for _, it := range res.Reconciliation.FinalItems {
		assert.Equal(t, "tesseract", it.Source)
	}
}
