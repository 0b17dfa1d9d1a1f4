package utils

// UniqueUint removes duplicate and zero values from a slice of uints, keeping first-seen order.
func UniqueUint(slice []uint) []uint {
	keys := make(map[uint]bool)
	list := []uint{}
	for _, entry := range slice {
		if entry == 0 || keys[entry] {
			continue
		}
		keys[entry] = true
		list = append(list, entry)
	}
	return list
}
