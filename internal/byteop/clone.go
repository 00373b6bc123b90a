package byteop

// Clone независимая копия данного слайса байтов.
func Clone(data []byte) []byte {
	if data == nil {
		return nil
	}

	res := make([]byte, len(data))
	copy(res, data)

	return res
}
