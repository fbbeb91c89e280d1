package catchment

// 文档注释：轻量 geohash 编解码（base32）
// 背景：用作集水区缓存键；精度 8 时单元约 38m×19m，查询中心吸附到单元中心后再计算。
// 约束：只用于缓存键，不参与任何空间判定。
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Encode 经纬度编码为 geohash
func Encode(lat, lng float64, precision int) string {
	latInt := [2]float64{-90, 90}
	lngInt := [2]float64{-180, 180}
	out := make([]byte, 0, precision)
	bit, ch := 0, 0
	even := true
	for len(out) < precision {
		if even {
			mid := (lngInt[0] + lngInt[1]) / 2
			if lng >= mid {
				ch |= 16 >> bit
				lngInt[0] = mid
			} else {
				lngInt[1] = mid
			}
		} else {
			mid := (latInt[0] + latInt[1]) / 2
			if lat >= mid {
				ch |= 16 >> bit
				latInt[0] = mid
			} else {
				latInt[1] = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
			continue
		}
		out = append(out, base32[ch])
		bit, ch = 0, 0
	}
	return string(out)
}

// Decode 返回 geohash 单元中心；含非法字符时 ok=false
func Decode(hash string) (lat, lng float64, ok bool) {
	latInt := [2]float64{-90, 90}
	lngInt := [2]float64{-180, 180}
	even := true
	for i := 0; i < len(hash); i++ {
		cd := indexOf(hash[i])
		if cd < 0 {
			return 0, 0, false
		}
		for mask := 16; mask > 0; mask >>= 1 {
			if even {
				mid := (lngInt[0] + lngInt[1]) / 2
				if cd&mask != 0 {
					lngInt[0] = mid
				} else {
					lngInt[1] = mid
				}
			} else {
				mid := (latInt[0] + latInt[1]) / 2
				if cd&mask != 0 {
					latInt[0] = mid
				} else {
					latInt[1] = mid
				}
			}
			even = !even
		}
	}
	return (latInt[0] + latInt[1]) / 2, (lngInt[0] + lngInt[1]) / 2, true
}

func indexOf(c byte) int {
	for i := 0; i < len(base32); i++ {
		if base32[i] == c {
			return i
		}
	}
	return -1
}
