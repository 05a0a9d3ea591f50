package trainer

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"mtexp/internal/common/fsutil"
	"mtexp/internal/model"
	"mtexp/pkg/types"
)

const (
	backendCPU      = "cpu"
	backendParallel = "parallel"
)

// device executes per-example work either inline or on a worker pool.
type device struct {
	info  types.DeviceInfo
	pool  *workerpool.WorkerPool
	chunk int
}

func newDevice(useGPU bool, workers, chunk int, probe func() string) *device {
	d := &device{chunk: chunk, info: types.DeviceInfo{Backend: backendCPU, Workers: 1, GPURequested: useGPU}}
	if !useGPU {
		return d
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	d.info.Backend = backendParallel
	d.info.Workers = workers
	d.info.Accelerator = probe()
	d.pool = workerpool.New(workers)
	return d
}

func (d *device) close() {
	if d.pool != nil {
		d.pool.StopWait()
	}
}

// each calls fn(i) for i in [0,n), concurrently on the parallel backend.
func (d *device) each(n int, fn func(i int)) {
	if d.pool == nil || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		d.pool.Submit(func() {
			defer wg.Done()
			fn(i)
		})
	}
	wg.Wait()
}

// eachIndex calls fn(i) for i in [0,n), handing out indices in blocks.
func (d *device) eachIndex(n int, fn func(i int)) {
	const block = 256
	d.each((n+block-1)/block, func(b int) {
		for i := b * block; i < min((b+1)*block, n); i++ {
			fn(i)
		}
	})
}

// accumulate runs fn for batch positions [0,n) in fixed-size chunks, each
// with its own gradient buffer, then sums chunk gradients and losses in chunk
// order.
func (d *device) accumulate(m *model.Model, n int, fn func(pos int, g *model.Grads) float64) (*model.Grads, float64) {
	chunks := (n + d.chunk - 1) / d.chunk
	grads := make([]*model.Grads, chunks)
	losses := make([]float64, chunks)
	d.each(chunks, func(c int) {
		g := m.NewGrads()
		var l float64
		for pos := c * d.chunk; pos < min((c+1)*d.chunk, n); pos++ {
			l += fn(pos, g)
		}
		grads[c], losses[c] = g, l
	})
	total := m.NewGrads()
	var loss float64
	for c := range grads {
		total.Add(grads[c])
		loss += losses[c]
	}
	return total, loss
}

// probeAccelerator reports a visible NVIDIA device, "" when none is found.
func probeAccelerator() string {
	if p, err := exec.LookPath("nvidia-smi"); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		out, err := exec.CommandContext(ctx, p, "--query-gpu=name", "--format=csv,noheader").Output()
		if err == nil {
			if line, _, _ := bytes.Cut(bytes.TrimSpace(out), []byte("\n")); len(line) > 0 {
				return string(bytes.TrimSpace(line))
			}
		}
		return "nvidia-smi"
	}
	if fsutil.PathExists("/dev/nvidia0") {
		return "/dev/nvidia0"
	}
	return ""
}
