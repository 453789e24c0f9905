package boot

import (
	"io/ioutil"

	"github.com/pkg/errors"
)

// Image is a raw firmware binary.
type Image struct {
	Name string
	Data []byte
}

// LoadImage reads a firmware binary from disk.
func LoadImage(path string) (*Image, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: errors.Wrap(err, "read")}
	}
	return &Image{Name: path, Data: data}, nil
}

// Size returns the image size in bytes.
func (img *Image) Size() int {
	return len(img.Data)
}

// CRC32 returns the checksum of the image.
func (img *Image) CRC32() uint32 {
	return CRC32(img.Data)
}

// Chunks splits the image into payloads of at most size bytes.
func (img *Image) Chunks(size int) [][]byte {
	if size <= 0 || size > MaxPayload {
		size = MaxPayload
	}
	var chunks [][]byte
	for off := 0; off < len(img.Data); off += size {
		end := off + size
		if end > len(img.Data) {
			end = len(img.Data)
		}
		chunks = append(chunks, img.Data[off:end])
	}
	return chunks
}
