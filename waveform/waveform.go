// Package waveform synthesizes noise waveforms to feed the codec.
//
// A waveform is generated from a mean amplitude spectrum: each frequency bin
// gets a Rayleigh-distributed amplitude scaled by the spectrum and a uniform
// random phase, and the inverse FFT of that is the waveform. Randomness always
// comes from a *rand.Rand the caller passes in, so a fixed seed gives a fixed
// image.
package waveform

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/dargueta/mphenc"
	"gonum.org/v1/gonum/dsp/fourier"
)

// NewSource returns a deterministic random generator for the given seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Rayleigh evaluates the Rayleigh probability density over the domain and
// normalizes it to sum to 1.
func Rayleigh(domain []float64, sigma float64) []float64 {
	isig2 := 1.0 / (sigma * sigma)
	out := make([]float64, len(domain))
	sum := 0.0
	for i, x := range domain {
		out[i] = isig2 * x * math.Exp(-0.5*isig2*x*x)
		sum += out[i]
	}
	if sum != 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// Waveform generates a single waveform whose length is that of the spectrum.
func Waveform(meanSpectrum []float64, r *rand.Rand) []float64 {
	return Waveforms(meanSpectrum, 1, r)[0]
}

// Waveforms generates `n` independent waveforms following the mean spectrum.
func Waveforms(meanSpectrum []float64, n int, r *rand.Rand) [][]float64 {
	length := len(meanSpectrum)
	waves := make([][]float64, n)
	if length == 0 {
		for i := range waves {
			waves[i] = []float64{}
		}
		return waves
	}

	fft := fourier.NewCmplxFFT(length)
	spectrum := make([]complex128, length)
	sequence := make([]complex128, length)

	for w := range waves {
		for i, scale := range meanSpectrum {
			amplitude := rayleighSample(r, scale)
			phase := 2 * math.Pi * r.Float64()
			spectrum[i] = complex(amplitude*math.Cos(phase), amplitude*math.Sin(phase))
		}

		// gonum's inverse transform isn't normalized.
		fft.Sequence(sequence, spectrum)
		wave := make([]float64, length)
		for i, v := range sequence {
			wave[i] = real(v) / float64(length)
		}
		waves[w] = wave
	}
	return waves
}

func rayleighSample(r *rand.Rand, scale float64) float64 {
	// 1 - U is in (0, 1], so the log is finite.
	return scale * math.Sqrt(-2*math.Log(1-r.Float64()))
}

// White generates white noise: a flat mean spectrum.
func White(length, n int, r *rand.Rand) [][]float64 {
	spectrum := make([]float64, length)
	for i := range spectrum {
		spectrum[i] = 1.0 / float64(length)
	}
	return Waveforms(spectrum, n, r)
}

// Pink generates 1/f noise. `tsample` is the sample period.
func Pink(length int, tsample float64, n int, r *rand.Rand) [][]float64 {
	df := (1.0 / tsample) / float64(length)
	spectrum := make([]float64, length)
	sum := 0.0
	for i := range spectrum {
		spectrum[i] = 1.0 / (df * float64(i+1))
		sum += spectrum[i]
	}
	for i := range spectrum {
		spectrum[i] /= sum
	}
	return Waveforms(spectrum, n, r)
}

// Detector noise parameters: 1000 ticks at 2 MHz around a 12-bit ADC pedestal.
const (
	NoiseTicks    = 1000
	NoiseTick     = 0.5e-6
	NoiseBaseline = 1 << 11
)

// Noise generates `n` channels of detector-like noise: a Rayleigh-shaped
// spectrum peaking at a tenth of the sampling frequency, on top of the ADC
// baseline. It returns the image (one channel per row) and the sample times.
func Noise(n int, r *rand.Rand) (*mphenc.Image, []float64) {
	maxFreq := 1.0 / NoiseTick
	freqPeak := maxFreq / 10.0

	times := make([]float64, NoiseTicks)
	freqs := make([]float64, NoiseTicks)
	for i := range times {
		times[i] = float64(i) * NoiseTick
		freqs[i] = float64(i) * maxFreq / NoiseTicks
	}

	spectrum := Rayleigh(freqs, freqPeak)
	for i := range spectrum {
		spectrum[i] *= 1e6
	}

	waves := Waveforms(spectrum, n, r)
	m := mphenc.NewMatrix(n, NoiseTicks)
	for row, wave := range waves {
		for col, v := range wave {
			// Truncate toward zero, the way an integer cast does.
			m.Set(row, col, NoiseBaseline+mphenc.Symbol(v))
		}
	}
	return &mphenc.Image{Matrix: m, BitWidth: mphenc.DefaultBitWidth}, times
}

// Quantize converts waveforms into an image, computing each sample as
// offset + floor(scale * value). All waveforms must have the same length.
func Quantize(waves [][]float64, scale, offset float64, bitWidth uint) (*mphenc.Image, error) {
	rows := make([][]mphenc.Symbol, len(waves))
	for i, wave := range waves {
		row := make([]mphenc.Symbol, len(wave))
		for j, v := range wave {
			q := offset + math.Floor(scale*v)
			if q < math.MinInt32 || q > math.MaxInt32 || math.IsNaN(q) {
				return nil, mphenc.ErrInvalidArgument.WithMessage(
					fmt.Sprintf("sample %g at (%d, %d) doesn't fit in 32 bits", q, i, j))
			}
			row[j] = mphenc.Symbol(q)
		}
		rows[i] = row
	}
	return mphenc.ImageFromRows(rows, bitWidth)
}

// SpectrumImage generates `n` rows of 10,000 samples with a Rayleigh spectrum
// over [0, 1000) (σ = 100), quantized at a scale of 10.
func SpectrumImage(n int, r *rand.Rand) (*mphenc.Image, error) {
	domain := make([]float64, 10000)
	for i := range domain {
		domain[i] = float64(i) * 0.1
	}

	spectrum := Rayleigh(domain, 100)
	for i := range spectrum {
		spectrum[i] *= 1e6
	}
	return Quantize(Waveforms(spectrum, n, r), 10, 0, 16)
}
