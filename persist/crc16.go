package persist

// checksumInit is the register preset used by the clock's stored records.
const checksumInit uint16 = 0xFFFF

// Checksum returns the CRC-16 (reflected polynomial 0xA001, LSB first) of b
// with the register preset to 0xFFFF.
func Checksum(b []byte) uint16 {
	return ChecksumWithInit(b, checksumInit)
}

// ChecksumWithInit is Checksum with an explicit register preset. A preset of
// zero gives the CRC-16/ARC catalogue value.
func ChecksumWithInit(b []byte, crc uint16) uint16 {
	for _, v := range b {
		crc ^= uint16(v)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
