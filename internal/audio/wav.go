package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Info describes a decoded audio file.
type Info struct {
	Channels   int
	SampleRate int
	Duration   float64
}

// ErrNotWAV indicates the file is not a RIFF/WAVE container.
var ErrNotWAV = errors.New("not a WAV file")

// Probe reads the RIFF header of a WAV file and reports its channel
// layout, sample rate, and duration. It fails fast on missing or
// undecodable input.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return Info{}, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Info{}, fmt.Errorf("%s: %w", path, ErrNotWAV)
	}

	var (
		info       Info
		byteRate   uint32
		haveFmt    bool
		dataSize   uint32
		haveData   bool
		chunkID    [4]byte
		chunkSize  uint32
	)

	for {
		if _, err := io.ReadFull(f, chunkID[:]); err != nil {
			break
		}
		if err := binary.Read(f, binary.LittleEndian, &chunkSize); err != nil {
			break
		}

		switch string(chunkID[:]) {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(f, binary.LittleEndian, &fmtChunk); err != nil {
				return Info{}, fmt.Errorf("read fmt chunk: %w", err)
			}
			info.Channels = int(fmtChunk.NumChannels)
			info.SampleRate = int(fmtChunk.SampleRate)
			byteRate = fmtChunk.ByteRate
			haveFmt = true
			if rest := int64(chunkSize) - 16; rest > 0 {
				if _, err := f.Seek(rest, io.SeekCurrent); err != nil {
					return Info{}, fmt.Errorf("skip fmt extension: %w", err)
				}
			}
		case "data":
			dataSize = chunkSize
			haveData = true
			// Duration needs only the chunk size, not the samples.
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				break
			}
		default:
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				break
			}
		}

		if haveFmt && haveData {
			break
		}
	}

	if !haveFmt {
		return Info{}, fmt.Errorf("%s: missing fmt chunk: %w", path, ErrNotWAV)
	}
	if info.Channels == 0 || info.SampleRate == 0 {
		return Info{}, fmt.Errorf("%s: invalid fmt chunk", path)
	}
	if haveData && byteRate > 0 {
		info.Duration = float64(dataSize) / float64(byteRate)
	}
	return info, nil
}
