package network

import (
	"sort"
	"sync"

	"whitehill-server/pkg/api"
)

// Размер личного буфера. Медленный клиент теряет кадры, а не тормозит цикл.
const subscriberBuffer = 16

// Broadcaster занимается только рассылкой сообщений подписчикам
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: SessionID -> Личный канал
	subscribers map[string]chan api.ServerMessage
	dropped     map[string]uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.ServerMessage),
		dropped:     make(map[string]uint64),
	}
}

// Register создает личный канал для сессии
func (b *Broadcaster) Register(sessionID string) chan api.ServerMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Если канал был, закрываем
	if old, ok := b.subscribers[sessionID]; ok {
		close(old)
	}

	ch := make(chan api.ServerMessage, subscriberBuffer)
	b.subscribers[sessionID] = ch
	b.dropped[sessionID] = 0
	return ch
}

// Unregister удаляет подписчика
func (b *Broadcaster) Unregister(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[sessionID]; ok {
		close(ch)
		delete(b.subscribers, sessionID)
		delete(b.dropped, sessionID)
	}
}

// SendTo отправляет сообщение конкретной сессии (Unicast).
// Возвращает false, если подписчика нет или его буфер полон.
func (b *Broadcaster) SendTo(sessionID string, msg api.ServerMessage) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[sessionID]
	if !ok {
		return false
	}
	select {
	case ch <- msg:
		return true
	default:
		b.dropped[sessionID]++
		return false
	}
}

// Broadcast отправляет всем
func (b *Broadcaster) Broadcast(msg api.ServerMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			b.dropped[id]++
		}
	}
}

// Owns проверяет, что ch - текущий канал сессии, а не канал
// старого соединения, вытесненного повторным входом.
func (b *Broadcaster) Owns(sessionID string, ch <-chan api.ServerMessage) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cur, ok := b.subscribers[sessionID]
	return ok && cur == ch
}

func (b *Broadcaster) HasSubscriber(sessionID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[sessionID]
	return ok
}

// Sessions возвращает отсортированный список подписанных сессий
func (b *Broadcaster) Sessions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dropped - сколько кадров сессия потеряла из-за полного буфера
func (b *Broadcaster) Dropped(sessionID string) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped[sessionID]
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
