// Package metrics экспортирует состояние реестра блоков и движка опоры в Prometheus.
package metrics

import (
	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/support"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector реализует block.Observer и support.Observer
type Collector struct {
	families        prometheus.Gauge
	blocks          prometheus.Gauge
	registered      prometheus.Counter
	exhausted       prometheus.Counter
	mappingMissing  prometheus.Counter
	unavailable     prometheus.Counter
	supportLost     *prometheus.CounterVec
	placementDenied *prometheus.CounterVec
}

var (
	_ block.Observer   = (*Collector)(nil)
	_ support.Observer = (*Collector)(nil)
)

// New регистрирует метрики в reg (nil означает дефолтный регистр)
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		families: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blocks", Subsystem: "registry", Name: "families",
			Help: "Количество зарегистрированных семейств блоков.",
		}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blocks", Subsystem: "registry", Name: "blocks",
			Help: "Количество зарегистрированных блоков, включая воздух.",
		}),
		registered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blocks", Subsystem: "registry", Name: "family_registrations_total",
			Help: "Число регистраций семейств.",
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blocks", Subsystem: "registry", Name: "id_exhausted_total",
			Help: "Блоки, не получившие id из-за исчерпания пространства.",
		}),
		mappingMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blocks", Subsystem: "registry", Name: "persisted_mapping_missing_total",
			Help: "Блоки без сохранённого id.",
		}),
		unavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blocks", Subsystem: "registry", Name: "family_unavailable_total",
			Help: "Семейства, определение которых не удалось загрузить.",
		}),
		supportLost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blocks", Subsystem: "support", Name: "lost_total",
			Help: "Потери опоры по правилу и способу удаления.",
		}, []string{"rule", "removal"}),
		placementDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blocks", Subsystem: "support", Name: "placement_rejected_total",
			Help: "Отклонённые установки блоков по правилу.",
		}, []string{"rule"}),
	}
	reg.MustRegister(c.families, c.blocks, c.registered, c.exhausted,
		c.mappingMissing, c.unavailable, c.supportLost, c.placementDenied)
	return c
}

func (c *Collector) FamilyRegistered(_ *block.Family, snap *block.Snapshot) {
	c.registered.Inc()
	if snap != nil {
		c.families.Set(float64(snap.FamilyCount()))
		c.blocks.Set(float64(snap.BlockCount()))
	}
}

func (c *Collector) IDSpaceExhausted(block.BlockURI)        { c.exhausted.Inc() }
func (c *Collector) PersistedMappingMissing(block.BlockURI) { c.mappingMissing.Inc() }
func (c *Collector) FamilyUnavailable(block.BlockURI)       { c.unavailable.Inc() }

func (c *Collector) SupportLost(rule string, removal support.Removal) {
	c.supportLost.WithLabelValues(rule, removal.String()).Inc()
}

func (c *Collector) PlacementRejected(rule string) {
	c.placementDenied.WithLabelValues(rule).Inc()
}

// Sync выставляет gauge по текущему снимку (после Initialise снимок может быть пересоздан)
func (c *Collector) Sync(snap *block.Snapshot) {
	c.families.Set(float64(snap.FamilyCount()))
	c.blocks.Set(float64(snap.BlockCount()))
}
