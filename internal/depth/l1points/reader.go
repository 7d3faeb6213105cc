package l1points

import (
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edsrzf/mmap-go"
)

// BytesPerPoint is the size of one little-endian x,y,z,confidence record.
const BytesPerPoint = FloatsPerPoint * 4

// MaxFileSize caps point files read from disk (1 GiB).
const MaxFileSize = 1 << 30

// ErrUnknownFormat is returned by ReadFile for unrecognised extensions.
var ErrUnknownFormat = errors.New("unknown point file format")

// DecodeBinary decodes little-endian float32 quads into Points.
func DecodeBinary(data []byte) (Points, error) {
	if len(data)%BytesPerPoint != 0 {
		return nil, fmt.Errorf("binary point data length %d is not a multiple of %d", len(data), BytesPerPoint)
	}
	n := len(data) / BytesPerPoint
	points := make(Points, n)
	for i := range points {
		rec := data[i*BytesPerPoint : (i+1)*BytesPerPoint]
		points[i] = Point{
			X:          math.Float32frombits(binary.LittleEndian.Uint32(rec[0:4])),
			Y:          math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8])),
			Z:          math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12])),
			Confidence: math.Float32frombits(binary.LittleEndian.Uint32(rec[12:16])),
		}
	}
	return points, nil
}

// EncodeBinary is the inverse of DecodeBinary.
func EncodeBinary(c Cloud) []byte {
	if c == nil {
		return nil
	}
	out := make([]byte, c.Len()*BytesPerPoint)
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		rec := out[i*BytesPerPoint:]
		binary.LittleEndian.PutUint32(rec[0:4], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(rec[8:12], math.Float32bits(p.Z))
		binary.LittleEndian.PutUint32(rec[12:16], math.Float32bits(p.Confidence))
	}
	return out
}

// ReadBinaryFile memory-maps path read-only and decodes its point records.
// The mapping is released before returning; the result owns its memory.
func ReadBinaryFile(path string) (Points, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open point file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat point file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("point file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	if info.Size() == 0 {
		return Points{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to map point file: %w", err)
	}
	defer m.Unmap()

	return DecodeBinary(m)
}

// ReadCSV parses "x,y,z,confidence" rows. Lines starting with '#' are
// comments and a non-numeric first row is treated as a header.
func ReadCSV(r io.Reader) (Points, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points Points
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", row, err)
		}
		if len(rec) != FloatsPerPoint {
			return nil, fmt.Errorf("csv row %d: expected %d fields, got %d", row, FloatsPerPoint, len(rec))
		}
		var vals [FloatsPerPoint]float32
		var parseErr error
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
			if err != nil {
				parseErr = err
				break
			}
			vals[i] = float32(v)
		}
		if parseErr != nil {
			if row == 1 && len(points) == 0 {
				continue // header
			}
			return nil, fmt.Errorf("csv row %d: %w", row, parseErr)
		}
		points = append(points, Point{X: vals[0], Y: vals[1], Z: vals[2], Confidence: vals[3]})
	}
	return points, nil
}

// ReadFile loads a point file, choosing the decoder from the extension:
// .bin and .raw are binary quads, .csv and .txt are text rows.
func ReadFile(path string) (Points, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin", ".raw":
		return ReadBinaryFile(path)
	case ".csv", ".txt":
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open point file: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat point file: %w", err)
		}
		if info.Size() > MaxFileSize {
			return nil, fmt.Errorf("point file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
		}
		return ReadCSV(io.LimitReader(f, MaxFileSize))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}
