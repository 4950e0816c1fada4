package discord

import (
	"sync"

	"github.com/rs/zerolog/log"
)

const queueSize = 64

// dispatcher 按用户键保持消息到达顺序：同一用户的消息由一个
// 专属worker串行处理，不同用户互不阻塞。入队发生在discordgo的
// 事件分发循环里，因此队列顺序就是网关的到达顺序。
type dispatcher struct {
	mu     sync.Mutex
	queues map[string]chan func()
	done   chan struct{}
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		queues: make(map[string]chan func()),
		done:   make(chan struct{}),
	}
}

// dispatch 把一条消息的处理任务排进该用户的队列。
// 队列满时丢弃这条消息（处理端长时间卡住才会发生）。
func (d *dispatcher) dispatch(userKey string, job func()) {
	d.mu.Lock()
	q, ok := d.queues[userKey]
	if !ok {
		q = make(chan func(), queueSize)
		d.queues[userKey] = q
		go d.run(q)
	}
	d.mu.Unlock()

	select {
	case q <- job:
	default:
		log.Warn().Str("user", userKey).Msg("Message queue full, dropping message")
	}
}

func (d *dispatcher) run(q chan func()) {
	for {
		select {
		case <-d.done:
			return
		case job := <-q:
			job()
		}
	}
}

func (d *dispatcher) close() {
	close(d.done)
}
