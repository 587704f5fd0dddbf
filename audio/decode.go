package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// decodeFile dispatches on the file extension and returns a mono Signal at
// the file's native sample rate. Multi-channel sources are downmixed by
// averaging channels; integer PCM is scaled to [-1, 1).
func decodeFile(path string) (*Signal, error) {
	var (
		sig *Signal
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		sig, err = decodeWAV(path)
	case ".mp3":
		sig, err = decodeMP3(path)
	case ".flac":
		sig, err = decodeFLAC(path)
	case ".ogg":
		sig, err = decodeOgg(path)
	case ".m4a":
		// No maintained pure-Go AAC decoder exists; the extension is
		// accepted but decoding always fails with a descriptive cause.
		err = errors.New("m4a/AAC decoding is not supported by this build")
	default:
		err = errors.New("no decoder for extension")
	}

	if err != nil {
		return nil, &LoadError{Path: path, Reason: "decode failed", Err: err}
	}

	if sig.Rate <= 0 {
		return nil, &LoadError{Path: path, Reason: "decoder reported invalid sample rate"}
	}

	return sig, nil
}

func decodeWAV(path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	return intBufferToSignal(buf)
}

func intBufferToSignal(buf *gaudio.IntBuffer) (*Signal, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("empty PCM buffer")
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, errors.New("PCM buffer has no channels")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}

	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)

	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += float64(buf.Data[i*channels+c])
		}

		samples[i] = sum * scale / float64(channels)
	}

	return &Signal{Samples: samples, Rate: buf.Format.SampleRate}, nil
}

func decodeMP3(path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	// go-mp3 always emits 16-bit little-endian stereo frames.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	const bytesPerFrame = 4
	frames := len(raw) / bytesPerFrame
	samples := make([]float64, frames)

	for i := range frames {
		off := i * bytesPerFrame
		left := int16(uint16(raw[off]) | uint16(raw[off+1])<<8)
		right := int16(uint16(raw[off+2]) | uint16(raw[off+3])<<8)
		samples[i] = (float64(left) + float64(right)) / 2 / 32768
	}

	return &Signal{Samples: samples, Rate: dec.SampleRate()}, nil
}

func decodeFLAC(path string) (*Signal, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	info := stream.Info
	scale := 1.0 / float64(int64(1)<<(info.BitsPerSample-1))

	var samples []float64

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		channels := len(frame.Subframes)
		if channels == 0 {
			continue
		}

		blockLen := len(frame.Subframes[0].Samples)
		for i := range blockLen {
			sum := 0.0
			for c := range channels {
				sum += float64(frame.Subframes[c].Samples[i])
			}

			samples = append(samples, sum*scale/float64(channels))
		}
	}

	return &Signal{Samples: samples, Rate: int(info.SampleRate)}, nil
}

func decodeOgg(path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, err
	}

	channels := format.Channels
	if channels <= 0 {
		return nil, errors.New("ogg stream has no channels")
	}

	frames := len(data) / channels
	samples := make([]float64, frames)

	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += float64(data[i*channels+c])
		}

		samples[i] = sum / float64(channels)
	}

	return &Signal{Samples: samples, Rate: format.SampleRate}, nil
}
