package metrics

import (
	"bytes"
	"context"
	"testing"

	"github.com/annel0/block-engine/internal/assets"
	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/support"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symmetric(uri string) *block.FamilyDefinition {
	return &block.FamilyDefinition{
		URI:  block.MustParseURI(uri),
		Kind: block.KindSymmetric,
		Base: block.SectionDefinition{Properties: block.Properties{AttachmentAllowed: true}},
	}
}

func TestRegistryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	src := assets.NewMemorySource()
	src.AddFamily(symmetric("core:stone"))
	src.AddFamily(symmetric("core:dirt"))

	logger := logging.NewWriterLogger("test", &bytes.Buffer{}, logging.TRACE)
	r := block.NewRegistry(block.Options{
		Authoritative: true,
		Loader:        block.NewFamilyLoader(src, logger),
		Logger:        logger,
		Observer:      c,
	})

	// core:ghost отсутствует в ассетах, core:dirt не имеет сохранённого id
	stats := r.Initialise(context.Background(),
		[]string{"core:stone", "core:ghost"},
		map[string]block.BlockID{"core:stone": 1})
	require.Equal(t, 2, stats.Registered)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.registered))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unavailable))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mappingMissing))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.exhausted))

	snap := r.Snapshot()
	assert.Equal(t, float64(snap.FamilyCount()), testutil.ToFloat64(c.families))
	assert.Equal(t, float64(snap.BlockCount()), testutil.ToFloat64(c.blocks))
}

func TestSupportMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SupportLost("bottom", support.RemoveImmediately)
	c.SupportLost("side", support.RemoveDelayed)
	c.SupportLost("side", support.RemoveDelayed)
	c.PlacementRejected("attach")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.supportLost.WithLabelValues("side", "delayed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.supportLost.WithLabelValues("bottom", "immediately")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.placementDenied.WithLabelValues("attach")))

	n, err := testutil.GatherAndCount(reg, "blocks_support_lost_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSync(t *testing.T) {
	c := New(prometheus.NewRegistry())
	r := block.NewRegistry(block.Options{})
	c.Sync(r.Snapshot())
	assert.Equal(t, float64(r.Snapshot().BlockCount()), testutil.ToFloat64(c.blocks))
}
