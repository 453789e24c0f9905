package boot

// CRC32Poly is the generator polynomial used by the bootloader.
const CRC32Poly uint32 = 0x04C11DB7

// CRC32 computes the image checksum the bootloader verifies.
//
// Data is consumed as little-endian 32-bit words, the last word zero
// padded, each shifted MSB first through CRC32Poly from an all-ones
// seed. The result is complemented. This is not the reflected IEEE CRC
// of hash/crc32.
func CRC32(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for i := 0; i < len(data); i += 4 {
		var word uint32
		for n := 0; n < 4 && i+n < len(data); n++ {
			word |= uint32(data[i+n]) << (8 * uint(n))
		}
		crc ^= word
		for bit := 0; bit < 32; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ CRC32Poly
			} else {
				crc <<= 1
			}
		}
	}
	return ^crc
}
