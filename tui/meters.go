package tui

// MeterDecay is applied to every displayed meter once per frame.
const MeterDecay = 0.95

// meter is a displayed level. Peaks jump up at once and fall back slowly.
type meter float32

func (m *meter) update(peak float32) {
	if v := meter(peak); v > *m {
		*m = v
		return
	}
	*m *= MeterDecay
}

// bar renders a level in [0, 1] as a bar of width cells.
func bar(level float32, width int) string {
	n := int(level*float32(width) + 0.5)
	n = max(0, min(n, width))
	b := make([]rune, width)
	for i := range b {
		if i < n {
			b[i] = '█'
		} else {
			b[i] = '·'
		}
	}
	return string(b)
}
