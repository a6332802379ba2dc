// Package terrain provides a seeded stand-in height sampler for binaries that
// run without a host simulation. The real engine supplies its own sampler;
// the core never generates terrain.
package terrain

import "math"

// DemoSampler returns seeded value noise, smooth enough that most of the map
// passes the slope filter while ridges and lakes still carve obstacles.
// Deterministic for a given seed.
func DemoSampler(seed int64) func(x, z float64) float64 {
	const (
		baseScale = 24.0
		amplitude = 12.0
	)
	return func(x, z float64) float64 {
		h := amplitude * valueNoise(seed, x/baseScale, z/baseScale)
		h += (amplitude / 3) * valueNoise(seed+1, x/(baseScale/3), z/(baseScale/3))
		return h
	}
}

// valueNoise interpolates lattice hashes with smoothstep, returning ~[-1, 1].
func valueNoise(seed int64, x, z float64) float64 {
	x0 := int(math.Floor(x))
	z0 := int(math.Floor(z))
	fx := x - float64(x0)
	fz := z - float64(z0)

	sx := fx * fx * (3 - 2*fx)
	sz := fz * fz * (3 - 2*fz)

	v00 := latticeValue(seed, x0, z0)
	v10 := latticeValue(seed, x0+1, z0)
	v01 := latticeValue(seed, x0, z0+1)
	v11 := latticeValue(seed, x0+1, z0+1)

	top := v00 + (v10-v00)*sx
	bot := v01 + (v11-v01)*sx
	return top + (bot-top)*sz
}

func latticeValue(seed int64, x, z int) float64 {
	return float64(hash2(seed, x, z)%2001)/1000.0 - 1.0
}

func hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
