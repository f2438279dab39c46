// Package texture reads and writes the float textures produced by the atlas builder.
package texture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// DXGI formats used by the atlas
type Format uint32

const (
	FormatRGBA32F Format = 2
	FormatR32F    Format = 41
)

func (f Format) Channels() int {
	switch f {
	case FormatRGBA32F:
		return 4
	case FormatR32F:
		return 1
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatRGBA32F:
		return "R32G32B32A32_FLOAT"
	case FormatR32F:
		return "R32_FLOAT"
	}
	return fmt.Sprintf("DXGI(%d)", uint32(f))
}

var ErrNotDDS = errors.New("not a DDS file")
var ErrUnsupportedFormat = errors.New("unsupported DDS pixel format")

const (
	ddsMagic   = 0x20534444 // "DDS "
	fourCCDX10 = 0x30315844 // "DX10"

	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPitch       = 0x8
	ddsdPixelFormat = 0x1000
	ddsdMipMapCount = 0x20000

	ddpfFourCC         = 0x4
	ddsCapsTexture     = 0x1000
	dimensionTexture2D = 3
)

type ddsPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

type ddsHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       ddsPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type ddsHeaderDX10 struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// A square float texture with a single mip level
type Texture struct {
	Size   int
	Format Format
	Data   []float32
}

func (t *Texture) Channels() int {
	return t.Format.Channels()
}

// Writes a square texture as a DX10 DDS stream, little endian, one mip level
func WriteDDS(w io.Writer, size int, format Format, data []float32) error {
	channels := format.Channels()
	if channels == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if len(data) != size*size*channels {
		return fmt.Errorf("texture data has %d values, expected %d", len(data), size*size*channels)
	}

	header := ddsHeader{
		Size:              124,
		Flags:             ddsdCaps | ddsdHeight | ddsdWidth | ddsdPitch | ddsdPixelFormat | ddsdMipMapCount,
		Height:            uint32(size),
		Width:             uint32(size),
		PitchOrLinearSize: uint32(size * channels * 4),
		MipMapCount:       1,
		PixelFormat: ddsPixelFormat{
			Size:   32,
			Flags:  ddpfFourCC,
			FourCC: fourCCDX10,
		},
		Caps: ddsCapsTexture,
	}
	dx10 := ddsHeaderDX10{
		DXGIFormat:        uint32(format),
		ResourceDimension: dimensionTexture2D,
		ArraySize:         1,
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint32(ddsMagic)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, &dx10); err != nil {
		return err
	}

	row := make([]byte, size*channels*4)
	rowLen := size * channels
	for y := 0; y < size; y++ {
		values := data[y*rowLen : (y+1)*rowLen]
		for i, v := range values {
			binary.LittleEndian.PutUint32(row[i*4:], math.Float32bits(v))
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func WriteDDSFile(filePath string, size int, format Format, data []float32) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if err := WriteDDS(f, size, format, data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filePath, err)
	}
	return f.Close()
}

// Reads a texture written by WriteDDS. Only square DX10 textures in the atlas formats are accepted.
func ReadDDS(r io.Reader) (*Texture, error) {
	br := bufio.NewReader(r)

	var magic uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != ddsMagic {
		return nil, ErrNotDDS
	}

	var header ddsHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if header.Size != 124 || header.PixelFormat.FourCC != fourCCDX10 {
		return nil, fmt.Errorf("%w: legacy header", ErrUnsupportedFormat)
	}

	var dx10 ddsHeaderDX10
	if err := binary.Read(br, binary.LittleEndian, &dx10); err != nil {
		return nil, err
	}

	format := Format(dx10.DXGIFormat)
	channels := format.Channels()
	if channels == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if header.Width != header.Height {
		return nil, fmt.Errorf("%w: non square texture %dx%d", ErrUnsupportedFormat, header.Width, header.Height)
	}

	size := int(header.Width)
	tex := &Texture{
		Size:   size,
		Format: format,
		Data:   make([]float32, size*size*channels),
	}

	row := make([]byte, size*channels*4)
	rowLen := size * channels
	for y := 0; y < size; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, fmt.Errorf("texture data truncated at row %d: %w", y, err)
		}
		values := tex.Data[y*rowLen : (y+1)*rowLen]
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(row[i*4:]))
		}
	}
	return tex, nil
}

func ReadDDSFile(filePath string) (*Texture, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tex, err := ReadDDS(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return tex, nil
}
