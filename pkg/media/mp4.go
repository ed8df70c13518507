// Package media reads the playback length of uploaded MP4/MOV videos so lesson
// attachments can show a duration.
package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

var (
	ErrNoMovieBox  = errors.New("media: moov box not found")
	ErrNoHeaderBox = errors.New("media: mvhd box not found")
)

type box struct {
	kind      string
	start     int64
	size      int64
	headerLen int64
}

func (b box) payload() int64 { return b.size - b.headerLen }

func (b box) end() int64 { return b.start + b.size }

// FileDuration opens path and returns its duration.
func FileDuration(path string) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return Duration(file)
}

// Duration walks the top-level boxes of an ISO base media stream and reads the
// movie header. The reader is left at an unspecified offset.
func Duration(r io.ReadSeeker) (time.Duration, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	moov, err := findBox(r, size, "moov")
	if err != nil {
		if errors.Is(err, errBoxMissing) {
			return 0, ErrNoMovieBox
		}
		return 0, err
	}

	mvhd, err := findBox(r, moov.end(), "mvhd")
	if err != nil {
		if errors.Is(err, errBoxMissing) {
			return 0, ErrNoHeaderBox
		}
		return 0, err
	}

	return readMovieHeader(r, mvhd.payload())
}

var errBoxMissing = errors.New("box missing")

// findBox scans sibling boxes from the current offset up to end and leaves
// the reader at the payload of the first box of the given kind.
func findBox(r io.ReadSeeker, end int64, kind string) (box, error) {
	for {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return box{}, err
		}
		if pos >= end {
			return box{}, errBoxMissing
		}

		b, err := readBox(r, pos, end)
		if err != nil {
			return box{}, err
		}
		if b.kind == kind {
			return b, nil
		}
		if _, err := r.Seek(b.end(), io.SeekStart); err != nil {
			return box{}, err
		}
	}
}

func readBox(r io.Reader, start, limit int64) (box, error) {
	var head [8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return box{}, err
	}

	b := box{kind: string(head[4:8]), start: start, headerLen: 8}
	switch size := binary.BigEndian.Uint32(head[:4]); size {
	case 0:
		// extends to the end of the enclosing box
		b.size = limit - start
	case 1:
		var large [8]byte
		if _, err := io.ReadFull(r, large[:]); err != nil {
			return box{}, err
		}
		b.headerLen = 16
		b.size = int64(binary.BigEndian.Uint64(large[:]))
	default:
		b.size = int64(size)
	}

	if b.size < b.headerLen {
		return box{}, fmt.Errorf("media: invalid size for box %s", b.kind)
	}
	if b.end() > limit {
		return box{}, fmt.Errorf("media: box %s exceeds parent bounds", b.kind)
	}
	return b, nil
}

// mvhd layout after version/flags: v0 uses 32-bit times, v1 64-bit.
func readMovieHeader(r io.Reader, payload int64) (time.Duration, error) {
	if payload < 4 {
		return 0, fmt.Errorf("media: mvhd box too small")
	}
	var versionFlags [4]byte
	if _, err := io.ReadFull(r, versionFlags[:]); err != nil {
		return 0, err
	}

	var (
		timescale uint32
		length    uint64
	)
	switch version := versionFlags[0]; version {
	case 0:
		if payload < 4+16 {
			return 0, fmt.Errorf("media: mvhd too small for version 0")
		}
		var data [16]byte
		if _, err := io.ReadFull(r, data[:]); err != nil {
			return 0, err
		}
		timescale = binary.BigEndian.Uint32(data[8:12])
		length = uint64(binary.BigEndian.Uint32(data[12:16]))
	case 1:
		if payload < 4+28 {
			return 0, fmt.Errorf("media: mvhd too small for version 1")
		}
		var data [28]byte
		if _, err := io.ReadFull(r, data[:]); err != nil {
			return 0, err
		}
		timescale = binary.BigEndian.Uint32(data[16:20])
		length = binary.BigEndian.Uint64(data[20:28])
	default:
		return 0, fmt.Errorf("media: unsupported mvhd version %d", version)
	}

	if timescale == 0 {
		return 0, fmt.Errorf("media: mvhd timescale is zero")
	}
	seconds := float64(length) / float64(timescale)
	if seconds <= 0 || seconds > math.MaxInt64/float64(time.Second) {
		return 0, nil
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Seconds rounds a duration to whole seconds for attachment metadata.
func Seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}
