package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - Prometheus-метрики движка мира
type Metrics struct {
	LoadedChunks       prometheus.Gauge
	PendingChunks      prometheus.Gauge
	GeneratedChunks    prometheus.Counter
	UnloadedChunks     prometheus.Counter
	BlockEdits         *prometheus.CounterVec
	Instances          prometheus.Gauge
	GenerationDuration prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (если reg не nil)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelworld",
			Name:      "chunks_loaded",
			Help:      "Количество загруженных чанков.",
		}),
		PendingChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelworld",
			Name:      "chunks_pending",
			Help:      "Чанки, ожидающие генерации.",
		}),
		GeneratedChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "chunks_generated_total",
			Help:      "Всего сгенерированных чанков.",
		}),
		UnloadedChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "chunks_unloaded_total",
			Help:      "Всего выгруженных чанков.",
		}),
		BlockEdits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "block_edits_total",
			Help:      "Изменения блоков по типу операции.",
		}, []string{"op"}),
		Instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelworld",
			Name:      "instances",
			Help:      "Занятые слоты отрисовки во всех загруженных чанках.",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelworld",
			Name:      "chunk_generation_seconds",
			Help:      "Время генерации одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.LoadedChunks,
			m.PendingChunks,
			m.GeneratedChunks,
			m.UnloadedChunks,
			m.BlockEdits,
			m.Instances,
			m.GenerationDuration,
		)
	}
	return m
}
