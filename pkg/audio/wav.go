package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// wavFormat holds WAV file format information
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

var errNotWAV = errors.New("not a RIFF/WAVE file")

// parseWAV parses a WAV file and returns the format and audio data
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	var header [12]byte
	if _, err := io.ReadFull(reader, header[:]); err != nil {
		return nil, nil, fmt.Errorf("read wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, nil, errNotWAV
	}

	var format *wavFormat
	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(reader, chunkID[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, errors.New("wav has no data chunk")
			}
			return nil, nil, err
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, err
		}

		switch string(chunkID[:]) {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(reader, binary.LittleEndian, &fmtChunk); err != nil {
				return nil, nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			format = &wavFormat{
				SampleRate: int(fmtChunk.SampleRate),
				Channels:   int(fmtChunk.Channels),
				BitDepth:   int(fmtChunk.BitsPerSample),
			}
			// Skip any extra format bytes
			if chunkSize > 16 {
				if _, err := reader.Seek(int64(chunkSize-16), io.SeekCurrent); err != nil {
					return nil, nil, err
				}
			}
		case "data":
			if format == nil {
				return nil, nil, errors.New("wav data chunk before fmt chunk")
			}
			if format.BitDepth != 16 {
				return nil, nil, fmt.Errorf("unsupported wav bit depth %d", format.BitDepth)
			}
			size := int(chunkSize)
			if size > reader.Len() {
				size = reader.Len()
			}
			audioData := make([]byte, size)
			if _, err := io.ReadFull(reader, audioData); err != nil {
				return nil, nil, err
			}
			return format, audioData, nil
		default:
			// Skip unknown chunk
			if _, err := reader.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		}
	}
}

// Tone synthesises the default alarm sound: beeps of the given pitch, on and off for the same duration.
// The result is a mono 16-bit WAV.
func Tone(freq float64, beep time.Duration, beeps, sampleRate int) []byte {
	perBeep := int(float64(sampleRate) * beep.Seconds())
	samples := make([]int16, 0, perBeep*2*beeps)
	for b := 0; b < beeps; b++ {
		for i := 0; i < perBeep; i++ {
			// short fade at both ends avoids clicks
			env := math.Min(1, math.Min(float64(i), float64(perBeep-i))/float64(sampleRate/200+1))
			v := math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * env * 0.6
			samples = append(samples, int16(v*math.MaxInt16))
		}
		samples = append(samples, make([]int16, perBeep)...)
	}

	dataSize := uint32(len(samples) * 2)
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Size          uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{16, 1, 1, uint32(sampleRate), uint32(sampleRate * 2), 2, 16})
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// DefaultSound is the alarm sound used when no custom WAV is configured
func DefaultSound() []byte {
	return Tone(880, 250*time.Millisecond, 4, 44100)
}
