package combat

import (
	"container/heap"

	"go.uber.org/zap"
)

type TaskFunc func()

//CancelToken identifies a scheduled task; the zero token is never issued
type CancelToken uint64

//Scheduler is the timed callback service used by every component that waits
type Scheduler interface {
	Schedule(delay float64, name string, f TaskFunc) CancelToken
	Cancel(tok CancelToken) bool
}

type Task struct {
	Name   string
	F      TaskFunc
	due    float64
	origin float64
	seq    uint64
	tok    CancelToken
	index  int
}

func (t *Task) String() string {
	return t.Name
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due == h[j].due {
		return h[i].seq < h[j].seq
	}
	return h[i].due < h[j].due
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *taskHeap) Push(x interface{}) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

//TaskQueue runs callbacks once their delay has elapsed. Tasks due at the same
//time run in the order they were scheduled.
type TaskQueue struct {
	Log  *zap.SugaredLogger
	now  float64
	seq  uint64
	h    taskHeap
	live map[CancelToken]*Task
}

func NewTaskQueue(log *zap.SugaredLogger) *TaskQueue {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TaskQueue{
		Log:  log,
		live: make(map[CancelToken]*Task),
	}
}

func (q *TaskQueue) Now() float64 {
	return q.now
}

func (q *TaskQueue) Pending() int {
	return len(q.live)
}

func (q *TaskQueue) Schedule(delay float64, name string, f TaskFunc) CancelToken {
	if delay < 0 {
		delay = 0
	}
	q.seq++
	t := &Task{
		Name:   name,
		F:      f,
		due:    q.now + delay,
		origin: q.now,
		seq:    q.seq,
		tok:    CancelToken(q.seq),
	}
	heap.Push(&q.h, t)
	q.live[t.tok] = t
	q.Log.Debugf("\t task added: %v due %.3f", name, t.due)
	return t.tok
}

func (q *TaskQueue) Cancel(tok CancelToken) bool {
	t, ok := q.live[tok]
	if !ok {
		return false
	}
	delete(q.live, tok)
	heap.Remove(&q.h, t.index)
	q.Log.Debugf("\t task cancelled: %v", t.Name)
	return true
}

//Advance moves the clock forward by dt and runs everything that became due,
//including tasks scheduled by other tasks during this call
//
//Now reports each task's due time while it runs
func (q *TaskQueue) Advance(dt float64) {
	target := q.now + dt
	for len(q.h) > 0 && q.h[0].due <= target {
		t := heap.Pop(&q.h).(*Task)
		delete(q.live, t.tok)
		if t.due > q.now {
			q.now = t.due
		}
		q.Log.Debugf("\t [%.3f] executing task %v, originated at %.3f", q.now, t.Name, t.origin)
		t.F()
	}
	q.now = target
}

//TaskGroup tracks the tasks one owner scheduled so they can be cancelled
//together at teardown
type TaskGroup struct {
	s      Scheduler
	tokens map[CancelToken]struct{}
	closed bool
}

func NewTaskGroup(s Scheduler) *TaskGroup {
	return &TaskGroup{
		s:      s,
		tokens: make(map[CancelToken]struct{}),
	}
}

func (g *TaskGroup) Schedule(delay float64, name string, f TaskFunc) CancelToken {
	if g.closed || g.s == nil {
		return 0
	}
	var tok CancelToken
	tok = g.s.Schedule(delay, name, func() {
		delete(g.tokens, tok)
		f()
	})
	g.tokens[tok] = struct{}{}
	return tok
}

func (g *TaskGroup) Cancel(tok CancelToken) bool {
	if _, ok := g.tokens[tok]; !ok {
		return false
	}
	delete(g.tokens, tok)
	return g.s.Cancel(tok)
}

func (g *TaskGroup) Pending() int {
	return len(g.tokens)
}

//Close cancels every outstanding task and refuses new ones
func (g *TaskGroup) Close() {
	for tok := range g.tokens {
		g.s.Cancel(tok)
	}
	g.tokens = make(map[CancelToken]struct{})
	g.closed = true
}
