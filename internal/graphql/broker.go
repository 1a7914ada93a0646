package graphql

import (
	"context"
	"sync"

	"github.com/ButyrinIA/socialgraph/internal/models"
)

const subscriberBuffer = 16

// Broker рассылает новые комментарии подписчикам commentAdded.
// Реализует service.CommentPublisher.
type Broker struct {
	subscribers map[int]map[chan *models.Comment]struct{}
	mu          sync.RWMutex
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int]map[chan *models.Comment]struct{}),
	}
}

// Subscribe возвращает канал комментариев к посту. Канал закрывается после
// отмены ctx.
func (b *Broker) Subscribe(ctx context.Context, postID int) <-chan *models.Comment {
	ch := make(chan *models.Comment, subscriberBuffer)

	b.mu.Lock()
	if _, exists := b.subscribers[postID]; !exists {
		b.subscribers[postID] = make(map[chan *models.Comment]struct{})
	}
	b.subscribers[postID][ch] = struct{}{}
	b.mu.Unlock()

	// Очистка канала после завершения подписки
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers[postID], ch)
		if len(b.subscribers[postID]) == 0 {
			delete(b.subscribers, postID)
		}
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// PublishComment не блокируется: медленный подписчик теряет событие
func (b *Broker) PublishComment(comment *models.Comment) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[comment.PostID] {
		c := *comment
		select {
		case ch <- &c:
		default:
		}
	}
}
