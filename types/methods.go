package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Tensor is a dense row-major int64 array.
type Tensor struct {
	Shape []int
	Data  []int64
}

func NewTensor(shape ...int) *Tensor {
	size := 1
	for _, d := range shape {
		size *= d
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]int64, size),
	}
}

func (t *Tensor) Size() int {
	return len(t.Data)
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) > len(t.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank %d", len(idx),
			len(t.Shape)))
	}
	off := 0
	for dim := range t.Shape {
		off *= t.Shape[dim]
		if dim < len(idx) {
			if idx[dim] < 0 || idx[dim] >= t.Shape[dim] {
				panic(fmt.Sprintf("tensor: index %d out of range for "+
					"dimension %d of size %d", idx[dim], dim, t.Shape[dim]))
			}
			off += idx[dim]
		}
	}
	return off
}

func (t *Tensor) At(idx ...int) int64 {
	return t.Data[t.offset(idx)]
}

func (t *Tensor) Set(v int64, idx ...int) {
	t.Data[t.offset(idx)] = v
}

// Row returns the sub-slice addressed by a prefix of indices. The slice
// aliases the tensor data.
func (t *Tensor) Row(idx ...int) []int64 {
	span := 1
	for _, d := range t.Shape[len(idx):] {
		span *= d
	}
	off := t.offset(idx)
	return t.Data[off : off+span]
}

// Mask returns a tensor of the same shape holding 1 wherever t is nonzero.
// For character tensors the mask covers the leading two dimensions: a
// position is valid when any of its character ids is nonzero.
func (t *Tensor) Mask() *Tensor {
	if len(t.Shape) <= 2 {
		mask := NewTensor(t.Shape...)
		for i, v := range t.Data {
			if v != 0 {
				mask.Data[i] = 1
			}
		}
		return mask
	}
	mask := NewTensor(t.Shape[:2]...)
	span := t.Size() / mask.Size()
	for i := range mask.Data {
		for _, v := range t.Data[i*span : (i+1)*span] {
			if v != 0 {
				mask.Data[i] = 1
				break
			}
		}
	}
	return mask
}

func (t *Tensor) ToBin(useUint32 bool) (*[]byte, error) {
	if useUint32 {
		return t.ToBinUint32()
	} else {
		return t.ToBinUint16()
	}
}

func (t *Tensor) ToBinUint16() (*[]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(t.Data)*2))
	for idx := range t.Data {
		v := t.Data[idx]
		if v < 0 || v > 65535 {
			return nil, fmt.Errorf("integer overflow: tried to write "+
				"value %d as unsigned 16-bit", v)
		}
		err := binary.Write(buf, binary.LittleEndian, uint16(v))
		if err != nil {
			return nil, err
		}
	}
	byt := buf.Bytes()
	return &byt, nil
}

func (t *Tensor) ToBinUint32() (*[]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(t.Data)*4))
	for idx := range t.Data {
		v := t.Data[idx]
		if v < 0 || v > 4294967295 {
			return nil, fmt.Errorf("integer overflow: tried to write "+
				"value %d as unsigned 32-bit", v)
		}
		err := binary.Write(buf, binary.LittleEndian, uint32(v))
		if err != nil {
			return nil, err
		}
	}
	byt := buf.Bytes()
	return &byt, nil
}

// TensorFromBin reads little-endian unsigned values written by ToBin into a
// tensor of the given shape. The byte count must match the shape exactly.
func TensorFromBin(bin *[]byte, useUint32 bool, shape ...int) (*Tensor,
	error) {
	width := 2
	if useUint32 {
		width = 4
	}
	t := NewTensor(shape...)
	if len(*bin) != t.Size()*width {
		return nil, fmt.Errorf("tensor: %d bytes for shape %v of %d-byte "+
			"values", len(*bin), shape, width)
	}
	for idx := range t.Data {
		off := idx * width
		if useUint32 {
			t.Data[idx] = int64(binary.LittleEndian.Uint32((*bin)[off:]))
		} else {
			t.Data[idx] = int64(binary.LittleEndian.Uint16((*bin)[off:]))
		}
	}
	return t, nil
}
