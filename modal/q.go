package modal

import "math"

// PoleRadius returns the per-sample envelope factor of a resonator whose
// impulse response falls 60 dB (amplitude ratio 1e-3) in decay seconds.
func PoleRadius(decay, sampleRate float64) float64 {
	return math.Pow(10, -3/(decay*sampleRate))
}

// BandwidthHz converts a pole radius to the resonator's 3 dB bandwidth.
func BandwidthHz(poleRadius, sampleRate float64) float64 {
	return -math.Log(poleRadius) / (math.Pi / sampleRate)
}

// QFromDecay returns the bandpass quality factor that makes a resonator at
// frequency ring out over decay seconds (T60).
func QFromDecay(frequency, decay, sampleRate float64) float64 {
	return frequency / BandwidthHz(PoleRadius(decay, sampleRate), sampleRate)
}
