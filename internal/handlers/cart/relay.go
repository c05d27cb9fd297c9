package cart

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// relay ne garde que la présence d'un message, le contenu est connu (cart_cleared)
func relay(ctx context.Context, in <-chan *redis.Message) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}
