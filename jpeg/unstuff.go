package jpeg

// UnstuffedScan is entropy-coded scan data with the byte stuffing removed.
type UnstuffedScan struct {
	Data     []byte
	Restarts int // The number of RSTn markers that were dropped.
	End      int // Offset of the marker that ended the data, or the input length.
}

// Unstuff removes the byte stuffing from entropy-coded scan data.
//
// A stuffed "FF 00" becomes a single 0xFF data byte, restart markers are
// dropped, and fill bytes (repeated 0xFF) are collapsed.  Any other marker
// ends the data.
func Unstuff(scan []byte) *UnstuffedScan {
	result := &UnstuffedScan{
		Data: make([]byte, 0, len(scan)),
		End:  len(scan),
	}

	for i := 0; i < len(scan); i++ {
		if scan[i] != 0xff {
			result.Data = append(result.Data, scan[i])
			continue
		}

		j := i + 1
		for j < len(scan) && scan[j] == 0xff {
			j++
		}
		if j >= len(scan) {
			logger.Debugf("Scan data ends with 0xff at offset %d", i)
			result.End = i
			return result
		}

		marker := Marker(0xff00 | uint16(scan[j]))
		switch {
		case scan[j] == 0x00:
			result.Data = append(result.Data, 0xff)
		case marker.IsRestart():
			result.Restarts++
		default:
			logger.Debugf("Scan data ended by %s at offset %d", marker, i)
			result.End = i
			return result
		}
		i = j
	}
	return result
}
