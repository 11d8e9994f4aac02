package ranging

const (
	// WindowSize is the number of samples averaged.
	WindowSize = 5

	// SnapshotInterval is the number of updates between trend snapshots.
	SnapshotInterval = 25
)

// Filter is a fixed-window moving average over raw distances. Every
// SnapshotInterval updates it copies the average into Last, giving a
// slow-moving trend baseline.
type Filter struct {
	window  [WindowSize]uint16
	total   uint32
	index   int
	updates int
	current uint16
	last    uint16
}

// Update folds one raw distance into the average and returns the new
// average. The first sample fills the whole window.
func (f *Filter) Update(d uint16) uint16 {
	if f.total == 0 && f.index == 0 {
		for i := range f.window {
			f.window[i] = d
		}
		f.total = uint32(d) * WindowSize
	}

	f.total -= uint32(f.window[f.index])
	f.window[f.index] = d
	f.total += uint32(d)
	f.index = (f.index + 1) % WindowSize

	f.current = uint16(f.total / WindowSize)

	f.updates++
	if f.updates >= SnapshotInterval {
		f.last = f.current
		f.updates = 0
	}
	return f.current
}

// Current returns the moving average.
func (f *Filter) Current() uint16 {
	return f.current
}

// Last returns the average captured at the most recent snapshot.
func (f *Filter) Last() uint16 {
	return f.last
}
