package tasks

import "github.com/prometheus/client_golang/prometheus"

var (
	tasksGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taskboard_tasks",
			Help: "Number of tasks on the board by completion state",
		},
		[]string{"state"},
	)

	storeSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_store_saves_total",
			Help: "Write-through saves of the task list by result",
		},
		[]string{"result"},
	)

	storeDiscardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_store_discarded_records_total",
			Help: "Stored records dropped on load because they failed validation",
		},
	)
)

func init() {
	prometheus.MustRegister(tasksGauge, storeSavesTotal, storeDiscardedTotal)
}

func observeTasks(list []Task) {
	var done int
	for _, t := range list {
		if t.Completed {
			done++
		}
	}
	tasksGauge.WithLabelValues("completed").Set(float64(done))
	tasksGauge.WithLabelValues("pending").Set(float64(len(list) - done))
}
