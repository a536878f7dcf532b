package geotag_test

import (
	"bytes"
	"encoding/binary"
)

// gpsTag describes one GPS degree value as three rationals.
type gpsTag struct {
	ref     string
	degrees [3][2]uint32
}

// tiffWithGPS builds a little-endian TIFF whose IFD0 points to a GPS IFD holding the
// latitude and longitude tags. A nil argument omits that pair of tags.
func tiffWithGPS(lat, lon *gpsTag) []byte {
	const (
		typeASCII    = 2
		typeLong     = 4
		typeRational = 5
		ifd0Offset   = 8
		gpsOffset    = ifd0Offset + 2 + 12 + 4
	)

	type entry struct {
		tag, typ uint16
		count    uint32
		inline   []byte
		data     []byte
	}

	var entries []entry
	addPair := func(refTag, valTag uint16, g *gpsTag) {
		if g == nil {
			return
		}
		entries = append(entries, entry{tag: refTag, typ: typeASCII, count: 2, inline: []byte(g.ref + "\x00")})
		data := make([]byte, 0, 24)
		for _, r := range g.degrees {
			data = binary.LittleEndian.AppendUint32(data, r[0])
			data = binary.LittleEndian.AppendUint32(data, r[1])
		}
		entries = append(entries, entry{tag: valTag, typ: typeRational, count: 3, data: data})
	}
	addPair(0x0001, 0x0002, lat)
	addPair(0x0003, 0x0004, lon)

	buf := &bytes.Buffer{}
	buf.WriteString("II")
	_ = binary.Write(buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(buf, binary.LittleEndian, uint32(ifd0Offset))

	// IFD0: a single GPSInfoIFDPointer entry.
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(0x8825))
	_ = binary.Write(buf, binary.LittleEndian, uint16(typeLong))
	_ = binary.Write(buf, binary.LittleEndian, uint32(1))
	_ = binary.Write(buf, binary.LittleEndian, uint32(gpsOffset))
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))

	dataOffset := uint32(gpsOffset + 2 + 12*len(entries) + 4)
	var tail []byte

	_ = binary.Write(buf, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, binary.LittleEndian, e.tag)
		_ = binary.Write(buf, binary.LittleEndian, e.typ)
		_ = binary.Write(buf, binary.LittleEndian, e.count)
		if e.data != nil {
			_ = binary.Write(buf, binary.LittleEndian, dataOffset+uint32(len(tail)))
			tail = append(tail, e.data...)
			continue
		}
		value := make([]byte, 4)
		copy(value, e.inline)
		buf.Write(value)
	}
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	buf.Write(tail)

	return buf.Bytes()
}

// tiffWithoutGPS builds a TIFF with an empty IFD0.
func tiffWithoutGPS() []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("II")
	_ = binary.Write(buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(buf, binary.LittleEndian, uint32(8))
	_ = binary.Write(buf, binary.LittleEndian, uint16(0))
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))

	return buf.Bytes()
}

func whole(deg uint32) [3][2]uint32 {
	return [3][2]uint32{{deg, 1}, {0, 1}, {0, 1}}
}
