package fn

import "sync"

// FanOut calls f(0) … f(n-1) concurrently and returns the results by index.
// Every call runs to completion; failures are part of T.
func FanOut[T any](n int, f func(i int) T) []T {
	out := make([]T, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			out[i] = f(i)
		}()
	}
	wg.Wait()
	return out
}
