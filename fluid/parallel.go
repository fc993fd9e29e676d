package fluid

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum cell count to split a phase across
// workers. Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 16 * 1024

// rowFunc processes rows [y0, y1).
type rowFunc func(y0, y1 int)

// workChunk represents a range of rows for a worker to process.
type workChunk struct {
	y0, y1 int
	fn     rowFunc
}

// rowPool is a persistent pool of goroutines that process row ranges.
// Every call to run returns only after all rows are done, which is the
// barrier between phases.
type rowPool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newRowPool(workers int) *rowPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &rowPool{numWorkers: workers}
}

// start launches persistent worker goroutines.
func (p *rowPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *rowPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *rowPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.y0, chunk.y1)
			p.doneChan <- struct{}{}
		}
	}
}

// run applies fn to rows [0, rows) of a grid with cols columns and waits.
func (p *rowPool) run(rows, cols int, fn rowFunc) {
	if p.numWorkers <= 1 || rows*cols < parallelThreshold || rows < 2 {
		fn(0, rows)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (rows + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		y0 := w * chunkSize
		y1 := min(y0+chunkSize, rows)
		if y0 >= y1 {
			continue
		}
		p.workChan <- workChunk{y0: y0, y1: y1, fn: fn}
		dispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
