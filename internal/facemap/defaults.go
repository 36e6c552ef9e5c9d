package facemap

import "github.com/lonng/dicebox/protocol"

// DefaultFaceCounts is the number of collider faces of the default dice
// models. Collider meshes are triangulated so most printed faces own more
// than one collider face.
var DefaultFaceCounts = map[protocol.DieType]int{
	protocol.D4:   4,
	protocol.D6:   12,
	protocol.D8:   8,
	protocol.D10:  20,
	protocol.D12:  36,
	protocol.D20:  20,
	protocol.D100: 20,
}

var defaultMaps = map[protocol.DieType]map[int]int{
	protocol.D4: {
		0: 1, 2: 2, 1: 3, 3: 4,
	},
	protocol.D6: {
		2: 1, 3: 1,
		0: 2, 1: 2,
		10: 3, 11: 3,
		8: 4, 9: 4,
		4: 5, 5: 5,
		6: 6, 7: 6,
	},
	protocol.D8: {
		1: 1, 6: 2, 5: 3, 0: 4, 2: 5, 4: 6, 7: 7, 3: 8,
	},
	protocol.D10: {
		18: 1, 19: 1,
		14: 2, 15: 2,
		4: 3, 5: 3,
		16: 4, 17: 4,
		12: 5, 13: 5,
		6: 6, 7: 6,
		2: 7, 3: 7,
		0: 8, 1: 8,
		10: 9, 11: 9,
		8: 0, 9: 0,
	},
	protocol.D12: {
		21: 1, 22: 1, 23: 1,
		3: 2, 4: 2, 5: 2,
		0: 3, 1: 3, 2: 3,
		24: 4, 25: 4, 26: 4,
		18: 5, 19: 5, 20: 5,
		30: 6, 31: 6, 32: 6,
		6: 7, 7: 7, 8: 7,
		9: 8, 10: 8, 11: 8,
		15: 9, 16: 9, 17: 9,
		27: 10, 28: 10, 29: 10,
		33: 11, 34: 11, 35: 11,
		12: 12, 13: 12, 14: 12,
	},
	protocol.D20: {
		10: 1, 9: 2, 12: 3, 6: 4, 0: 5,
		2: 6, 14: 7, 3: 8, 19: 9, 17: 10,
		1: 11, 4: 12, 15: 13, 7: 14, 16: 15,
		18: 16, 13: 17, 5: 18, 11: 19, 8: 20,
	},
	protocol.D100: {
		18: 10, 19: 10,
		14: 20, 15: 20,
		12: 30, 13: 30,
		8: 40, 9: 40,
		10: 50, 11: 50,
		16: 60, 17: 60,
		2: 70, 3: 70,
		0: 80, 1: 80,
		4: 90, 5: 90,
		6: 0, 7: 0,
	},
}

// Default returns the registry of the bundled dice models
func Default(opts ...Option) *Registry {
	maps := make(map[protocol.DieType]FaceMap, len(defaultMaps))
	for t, values := range defaultMaps {
		maps[t] = New(values)
	}
	return NewRegistry(maps, opts...)
}
