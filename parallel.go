package heifgainmap

import (
	"runtime"
	"sync"
)

var (
	maxParallelWorkers = 0
	workerSemOnce      sync.Once
	workerSem          chan struct{}
)

// minRowsPerWorker keeps tiny images on the calling goroutine.
const minRowsPerWorker = 16

// SetMaxWorkers limits the number of goroutines a stage may use, 0 means GOMAXPROCS.
// It must be called before the first pipeline run.
func SetMaxWorkers(n int) {
	if n < 0 {
		n = 0
	}
	maxParallelWorkers = n
}

// parallelRows splits [0, rows) into contiguous bands and runs fn on each band.
// Bands never overlap, so fn may write to its rows without locking.
func parallelRows(rows int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	capacity := runtime.GOMAXPROCS(0)
	if maxParallelWorkers > 0 && capacity > maxParallelWorkers {
		capacity = maxParallelWorkers
	}
	if capacity < 1 {
		capacity = 1
	}
	workerSemOnce.Do(func() {
		workerSem = make(chan struct{}, capacity)
	})
	if cap(workerSem) < capacity {
		capacity = cap(workerSem)
	}
	workers := capacity
	if w := rows / minRowsPerWorker; workers > w {
		workers = w
	}
	if workers <= 1 {
		fn(0, rows)
		return
	}
	step := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * step
		end := start + step
		if end > rows {
			end = rows
		}
		if start >= end {
			break
		}
		workerSem <- struct{}{}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() { <-workerSem }()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// mapSamples applies fn to every sample of src and stores the result in dst.
// dst and src may be the same slice.
func mapSamples(dst, src *Buffer, fn func(v float32) float32) {
	rowLen := src.Width * src.Channels
	parallelRows(src.Height, func(start, end int) {
		s := src.Pix[start*rowLen : end*rowLen]
		d := dst.Pix[start*rowLen : end*rowLen]
		for i, v := range s {
			d[i] = fn(v)
		}
	})
}
