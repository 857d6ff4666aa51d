package plant

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum unit count to tick on the worker pool.
// Below this the goroutine handoff costs more than it saves.
const parallelThreshold = 4

// workChunk is a range of units for one worker.
type workChunk struct {
	start, end int
}

// workerPool ticks reactor units on persistent goroutines.
type workerPool struct {
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: workers}
}

func (p *workerPool) start(process func(start, end int)) {
	if p.running {
		return
	}
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(process)
	}
}

func (p *workerPool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker(process func(start, end int)) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			process(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run splits [0,n) into one chunk per worker and waits for all of them.
func (p *workerPool) run(n int, process func(start, end int)) {
	if n < parallelThreshold || p.numWorkers == 1 {
		process(0, n)
		return
	}
	p.start(process)

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
