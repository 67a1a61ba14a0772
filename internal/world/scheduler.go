package world

import "time"

// Clock возвращает текущее время; подменяется в тестах
type Clock func() time.Time

// Scheduler - кооперативная очередь генерации чанков.
// Задачи выполняются в Tick мира, в пределах бюджета времени на кадр.
type Scheduler struct {
	queue     []ChunkCoord
	maxQueued int
	clock     Clock
}

// NewScheduler создаёт очередь. maxQueued <= 0 - без ограничения.
func NewScheduler(maxQueued int, clock Clock) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{maxQueued: maxQueued, clock: clock}
}

// Enqueue ставит чанк в очередь. false - очередь заполнена,
// координата будет предложена снова следующим Update.
func (s *Scheduler) Enqueue(coord ChunkCoord) bool {
	if s.maxQueued > 0 && len(s.queue) >= s.maxQueued {
		return false
	}
	s.queue = append(s.queue, coord)
	return true
}

// Len возвращает длину очереди
func (s *Scheduler) Len() int {
	return len(s.queue)
}

// Reset отбрасывает все задачи
func (s *Scheduler) Reset() {
	s.queue = nil
}

// Drain выполняет задачи по порядку, пока не истечёт бюджет.
// Хотя бы одна задача выполняется всегда; budget <= 0 - выполнить всё.
func (s *Scheduler) Drain(budget time.Duration, run func(ChunkCoord)) int {
	start := s.clock()
	done := 0
	for len(s.queue) > 0 {
		coord := s.queue[0]
		s.queue[0] = ChunkCoord{}
		s.queue = s.queue[1:]
		run(coord)
		done++
		if budget > 0 && s.clock().Sub(start) >= budget {
			break
		}
	}
	if len(s.queue) == 0 {
		s.queue = nil
	}
	return done
}
