package sample

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type wavInfo struct {
	duration time.Duration
	size     int64
	silent   bool
}

// inspect validates the clip ffmpeg wrote and measures it.
func inspect(path string) (wavInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return wavInfo{}, fmt.Errorf("%w: opening sample: %v", ErrExtractionFailed, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return wavInfo{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return wavInfo{}, fmt.Errorf("%w: sample is not a valid WAV file", ErrExtractionFailed)
	}

	duration, err := dec.Duration()
	if err != nil {
		return wavInfo{}, fmt.Errorf("%w: reading sample duration: %v", ErrExtractionFailed, err)
	}
	if duration <= 0 {
		return wavInfo{}, fmt.Errorf("%w: sample contains no audio", ErrExtractionFailed)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return wavInfo{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		return wavInfo{}, fmt.Errorf("%w: decoding sample: %v", ErrExtractionFailed, err)
	}

	return wavInfo{
		duration: duration,
		size:     st.Size(),
		silent:   isSilent(buf),
	}, nil
}

func isSilent(buf *audio.IntBuffer) bool {
	if buf == nil {
		return true
	}
	for _, v := range buf.Data {
		if v != 0 {
			return false
		}
	}
	return true
}
