package service

import (
	"context"
	"time"
)

// RunEvery interval 마다 task 실행. task 가 false 를 반환하거나 ctx 가 끝나면 멈춘다.
// 반환된 채널은 루프가 끝나면 닫힌다
func RunEvery(ctx context.Context, interval time.Duration, task func(ctx context.Context) bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !task(ctx) {
					return
				}
			}
		}
	}()
	return done
}
