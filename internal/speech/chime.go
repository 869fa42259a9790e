package speech

import "math"

// Chime tuning: a classic two-note "ding dong" (E5 down to C5), each
// note decaying exponentially so the tail doesn't click.
const (
	chimeHighHz   = 659.25
	chimeLowHz    = 523.25
	chimeNoteSecs = 0.9
	chimeGapSecs  = 0.15
	chimeAmp      = 0.6
	chimeDecay    = 3.0
)

// RenderChime synthesizes the chime clip as signed 16-bit little-endian
// mono PCM at the given sample rate. Deterministic, so the clip is
// rendered once at startup and reused for every bell.
func RenderChime(sampleRate int) []byte {
	ding := renderTone(chimeHighHz, chimeNoteSecs, sampleRate)
	gap := make([]byte, 2*int(chimeGapSecs*float64(sampleRate)))
	dong := renderTone(chimeLowHz, chimeNoteSecs, sampleRate)

	out := make([]byte, 0, len(ding)+len(gap)+len(dong))
	out = append(out, ding...)
	out = append(out, gap...)
	out = append(out, dong...)
	return out
}

// renderTone produces one decaying sine note as 16-bit LE mono PCM.
func renderTone(freq, secs float64, sampleRate int) []byte {
	n := int(secs * float64(sampleRate))
	out := make([]byte, 2*n)

	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-chimeDecay * t)
		sample := chimeAmp * envelope * math.Sin(2*math.Pi*freq*t)

		v := int16(sample * math.MaxInt16)
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}
