package graph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"
)

const (
	magicBytes = "TNRGRAPH"
	version    = uint32(1)
	maxNodes   = 50_000_000
	maxEdges   = 500_000_000
)

// Header flags for optional node metadata.
const (
	flagCoords uint32 = 1 << iota
	flagNodeIDs
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic        [8]byte
	Version      uint32
	Flags        uint32
	NumNodes     uint32
	NumOrigEdges uint32
	NumUpEdges   uint32
}

// WriteBinary serializes a CHGraph to a binary file.
// The file is written to a temporary path and renamed into place.
func WriteBinary(path string, chg *CHGraph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	hdr := fileHeader{
		Version:      version,
		NumNodes:     chg.NumNodes,
		NumOrigEdges: uint32(len(chg.OrigHead)),
		NumUpEdges:   uint32(len(chg.UpHead)),
	}
	if chg.NumNodes > 0 && uint32(len(chg.NodeLat)) == chg.NumNodes && uint32(len(chg.NodeLon)) == chg.NumNodes {
		hdr.Flags |= flagCoords
	}
	if chg.NumNodes > 0 && uint32(len(chg.NodeID)) == chg.NumNodes {
		hdr.Flags |= flagNodeIDs
	}
	if uint32(len(chg.Rank)) != chg.NumNodes {
		return fmt.Errorf("rank length %d != NumNodes %d", len(chg.Rank), chg.NumNodes)
	}
	if uint32(len(chg.UpFirstOut)) != chg.NumNodes+1 || uint32(len(chg.OrigFirstOut)) != chg.NumNodes+1 {
		return fmt.Errorf("CSR offsets must have NumNodes+1 = %d entries", chg.NumNodes+1)
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Node data.
	if hdr.Flags&flagCoords != 0 {
		if err := writeFloat64Slice(w, chg.NodeLat); err != nil {
			return fmt.Errorf("write NodeLat: %w", err)
		}
		if err := writeFloat64Slice(w, chg.NodeLon); err != nil {
			return fmt.Errorf("write NodeLon: %w", err)
		}
	}
	if hdr.Flags&flagNodeIDs != 0 {
		if err := writeInt64Slice(w, chg.NodeID); err != nil {
			return fmt.Errorf("write NodeID: %w", err)
		}
	}
	if err := writeUint32Slice(w, chg.Rank); err != nil {
		return fmt.Errorf("write Rank: %w", err)
	}

	// Upward graph.
	if err := writeUint32Slice(w, chg.UpFirstOut); err != nil {
		return fmt.Errorf("write UpFirstOut: %w", err)
	}
	if err := writeUint32Slice(w, chg.UpHead); err != nil {
		return fmt.Errorf("write UpHead: %w", err)
	}
	if err := writeFloat64Slice(w, chg.UpWeight); err != nil {
		return fmt.Errorf("write UpWeight: %w", err)
	}

	// Original graph.
	if err := writeUint32Slice(w, chg.OrigFirstOut); err != nil {
		return fmt.Errorf("write OrigFirstOut: %w", err)
	}
	if err := writeUint32Slice(w, chg.OrigHead); err != nil {
		return fmt.Errorf("write OrigHead: %w", err)
	}
	if err := writeFloat64Slice(w, chg.OrigWeight); err != nil {
		return fmt.Errorf("write OrigWeight: %w", err)
	}

	// CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadBinary deserializes a CHGraph from a binary file.
func ReadBinary(path string) (*CHGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("NumNodes %d exceeds limit %d", hdr.NumNodes, maxNodes)
	}
	if hdr.NumOrigEdges > maxEdges || hdr.NumUpEdges > maxEdges {
		return nil, fmt.Errorf("edge count exceeds limit %d", maxEdges)
	}

	n := int(hdr.NumNodes)
	chg := &CHGraph{NumNodes: hdr.NumNodes}

	if hdr.Flags&flagCoords != 0 {
		if chg.NodeLat, err = readFloat64Slice(r, n); err != nil {
			return nil, fmt.Errorf("read NodeLat: %w", err)
		}
		if chg.NodeLon, err = readFloat64Slice(r, n); err != nil {
			return nil, fmt.Errorf("read NodeLon: %w", err)
		}
	}
	if hdr.Flags&flagNodeIDs != 0 {
		if chg.NodeID, err = readInt64Slice(r, n); err != nil {
			return nil, fmt.Errorf("read NodeID: %w", err)
		}
	}
	if chg.Rank, err = readUint32Slice(r, n); err != nil {
		return nil, fmt.Errorf("read Rank: %w", err)
	}

	csrLen := n + 1
	if chg.UpFirstOut, err = readUint32Slice(r, csrLen); err != nil {
		return nil, fmt.Errorf("read UpFirstOut: %w", err)
	}
	if chg.UpHead, err = readUint32Slice(r, int(hdr.NumUpEdges)); err != nil {
		return nil, fmt.Errorf("read UpHead: %w", err)
	}
	if chg.UpWeight, err = readFloat64Slice(r, int(hdr.NumUpEdges)); err != nil {
		return nil, fmt.Errorf("read UpWeight: %w", err)
	}

	if chg.OrigFirstOut, err = readUint32Slice(r, csrLen); err != nil {
		return nil, fmt.Errorf("read OrigFirstOut: %w", err)
	}
	if chg.OrigHead, err = readUint32Slice(r, int(hdr.NumOrigEdges)); err != nil {
		return nil, fmt.Errorf("read OrigHead: %w", err)
	}
	if chg.OrigWeight, err = readFloat64Slice(r, int(hdr.NumOrigEdges)); err != nil {
		return nil, fmt.Errorf("read OrigWeight: %w", err)
	}

	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if n == 0 {
		return chg, nil
	}
	if err := validateCSR(chg.UpFirstOut, chg.UpHead, hdr.NumNodes); err != nil {
		return nil, fmt.Errorf("upward CSR invalid: %w", err)
	}
	if err := validateCSR(chg.OrigFirstOut, chg.OrigHead, hdr.NumNodes); err != nil {
		return nil, fmt.Errorf("original CSR invalid: %w", err)
	}
	for i, rk := range chg.Rank {
		if rk >= hdr.NumNodes {
			return nil, fmt.Errorf("Rank[%d]=%d >= NumNodes=%d", i, rk, hdr.NumNodes)
		}
	}
	return chg, nil
}

// validateCSR checks CSR invariants.
func validateCSR(firstOut, head []uint32, numNodes uint32) error {
	if uint32(len(firstOut)) != numNodes+1 {
		return fmt.Errorf("FirstOut length %d != NumNodes+1 %d", len(firstOut), numNodes+1)
	}
	numEdges := firstOut[numNodes]
	if uint32(len(head)) != numEdges {
		return fmt.Errorf("Head length %d != FirstOut[NumNodes] %d", len(head), numEdges)
	}
	for i := uint32(1); i <= numNodes; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	for i, h := range head {
		if h >= numNodes {
			return fmt.Errorf("Head[%d]=%d >= NumNodes=%d", i, h, numNodes)
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice. The on-disk byte order is the
// host's, which is little-endian on every supported platform.

func writeRaw[T uint32 | int64 | float64](w io.Writer, s []T) error {
	if len(s) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(s[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
	_, err := w.Write(b)
	return err
}

func readRaw[T uint32 | int64 | float64](r io.Reader, n int) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]T, n)
	size := int(unsafe.Sizeof(s[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func writeUint32Slice(w io.Writer, s []uint32) error   { return writeRaw(w, s) }
func writeInt64Slice(w io.Writer, s []int64) error     { return writeRaw(w, s) }
func writeFloat64Slice(w io.Writer, s []float64) error { return writeRaw(w, s) }

func readUint32Slice(r io.Reader, n int) ([]uint32, error)   { return readRaw[uint32](r, n) }
func readInt64Slice(r io.Reader, n int) ([]int64, error)     { return readRaw[int64](r, n) }
func readFloat64Slice(r io.Reader, n int) ([]float64, error) { return readRaw[float64](r, n) }

// CRC32 wrapping writers/readers.

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
