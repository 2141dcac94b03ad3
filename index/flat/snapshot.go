package flat

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/w-h-a/gameqa/index"
)

// Index file layout, little endian:
//
//	magic     [4]byte "GQAI"
//	version   uint32
//	dimension uint32
//	count     uint32
//	vectors   count*dimension float32
const (
	snapshotMagic   = "GQAI"
	snapshotVersion = 1
	headerSize      = 16
)

// stageFile writes into a temp file next to path. The returned commit
// renames it into place; discard removes it and is safe after commit.
func stageFile(path string, fn func(w io.Writer) error) (commit func() error, discard func(), err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, nil, err
	}

	discard = func() { _ = os.Remove(tmp.Name()) }

	w := bufio.NewWriter(tmp)

	if err := fn(w); err != nil {
		tmp.Close()
		discard()
		return nil, nil, err
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		discard()
		return nil, nil, err
	}

	if err := tmp.Close(); err != nil {
		discard()
		return nil, nil, err
	}

	commit = func() error {
		return os.Rename(tmp.Name(), path)
	}

	return commit, discard, nil
}

func encodeVectors(w io.Writer, dimension int, vectors [][]float32) error {
	header := make([]byte, headerSize)
	copy(header[0:4], snapshotMagic)
	binary.LittleEndian.PutUint32(header[4:8], snapshotVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(dimension))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(vectors)))

	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, dimension*4)
	for _, v := range vectors {
		for i, x := range v {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}

	return nil
}

func encodeMetadata(w io.Writer, metadata []string) error {
	return json.NewEncoder(w).Encode(metadata)
}

func readVectors(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, nil, err
	}

	return decodeVectors(bufio.NewReader(f), info.Size())
}

func decodeVectors(r io.Reader, size int64) (int, [][]float32, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("%w: header: %v", index.ErrCorruptSnapshot, err)
	}

	if string(header[0:4]) != snapshotMagic {
		return 0, nil, fmt.Errorf("%w: bad magic %q", index.ErrCorruptSnapshot, header[0:4])
	}

	if v := binary.LittleEndian.Uint32(header[4:8]); v != snapshotVersion {
		return 0, nil, fmt.Errorf("%w: unsupported version %d", index.ErrCorruptSnapshot, v)
	}

	dimension := int(binary.LittleEndian.Uint32(header[8:12]))
	count := int(binary.LittleEndian.Uint32(header[12:16]))

	if want := int64(headerSize) + int64(count)*int64(dimension)*4; size >= 0 && size != want {
		return 0, nil, fmt.Errorf("%w: expected %d bytes, got %d", index.ErrCorruptSnapshot, want, size)
	}

	vectors := make([][]float32, count)
	buf := make([]byte, dimension*4)

	for i := range vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, nil, fmt.Errorf("%w: vector %d: %v", index.ErrCorruptSnapshot, i, err)
		}
		v := make([]float32, dimension)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		vectors[i] = v
	}

	return dimension, vectors, nil
}

func readMetadata(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var metadata []string
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&metadata); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty metadata file", index.ErrCorruptSnapshot)
		}
		return nil, fmt.Errorf("%w: %v", index.ErrCorruptSnapshot, err)
	}

	if metadata == nil {
		metadata = []string{}
	}

	return metadata, nil
}
