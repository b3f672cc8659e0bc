package nodes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/param"
	"github.com/shaiso/Nodeflow/internal/task"
)

// DelayDefinition — отложенная выдача значения.
//
// Узел возвращает отложенную задачу: вход in становится доступен
// на выходе out не раньше, чем через seconds секунд. Ожидание идёт
// через цикл опроса планировщика, без фоновых горутин.
func DelayDefinition() *library.Definition {
	return &library.Definition{
		Type: "delay",
		Params: []param.Config{
			{Name: "in", Modes: param.ModeInput | param.ModeProperty},
			{Name: "seconds", Type: param.TypeFloat, Modes: param.ModeProperty},
			{Name: "out", Modes: param.ModeOutput},
		},
		Controls: []library.ControlSlot{
			{Name: "exec", Mode: param.ModeInput},
			{Name: "next", Mode: param.ModeOutput},
		},
		NewLogic: func() graph.Logic {
			return graph.LogicFunc(func(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
				duration := time.Duration(getFloat(n.ValueOf("seconds"), 0) * float64(time.Second))
				job := &delayJob{duration: duration, value: n.ValueOf("in")}
				return &graph.Deferred{Job: job, Target: "out"}, nil
			})
		},
	}
}

// delayJob — задача, переходящая в SUCCEEDED по истечении duration.
type delayJob struct {
	duration time.Duration
	value    any

	readyAt time.Time
}

// Submit реализует интерфейс task.Job.
func (j *delayJob) Submit(_ context.Context) (string, error) {
	j.readyAt = time.Now().Add(j.duration)
	return uuid.New().String(), nil
}

// Poll реализует интерфейс task.Job.
func (j *delayJob) Poll(_ context.Context, _ string) (task.Status, error) {
	if time.Now().Before(j.readyAt) {
		return task.Status{State: task.StatePending}, nil
	}
	return task.Status{State: task.StateSucceeded, Handle: "ready"}, nil
}

// Retrieve реализует интерфейс task.Job.
func (j *delayJob) Retrieve(_ context.Context, _ string) (any, error) {
	return j.value, nil
}
