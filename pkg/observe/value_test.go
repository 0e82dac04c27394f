package observe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueNotifiesInOrder(t *testing.T) {
	v := NewValue(0)
	var got []string
	v.Subscribe(func(n int) { got = append(got, "a") })
	v.Subscribe(func(n int) { got = append(got, "b") })

	v.Set(1)
	assert.Equal(t, 1, v.Get())
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestValueCancel(t *testing.T) {
	v := NewValue("x")
	calls := 0
	cancel := v.Subscribe(func(string) { calls++ })
	v.Set("y")
	cancel()
	cancel()
	v.Set("z")
	assert.Equal(t, 1, calls)
}

func TestValueUpdateIsAtomic(t *testing.T) {
	v := NewValue(0)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, v.Get())
}

func TestObserverMaySubscribeDuringNotify(t *testing.T) {
	v := NewValue(0)
	v.Subscribe(func(int) {
		v.Subscribe(func(int) {})
	})
	assert.NotPanics(t, func() { v.Set(1) })
}
