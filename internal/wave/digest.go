package wave

import (
	"strconv"

	"github.com/zeebo/xxh3"
)

// Digest fingerprints a wave sequence. Equal waves yield equal digests, so a
// rerun over the same inputs can be checked cheaply.
func Digest(waves []Wave) uint64 {
	h := xxh3.New()
	var buf []byte
	for _, w := range waves {
		buf = strconv.AppendInt(buf[:0], int64(w.Number), 10)
		buf = append(buf, 0x1e)
		for _, r := range w.Rows {
			buf = append(buf, r.RouteCode...)
			buf = append(buf, 0x1f)
			buf = append(buf, r.Location...)
			buf = append(buf, 0x1f)
			buf = strconv.AppendInt(buf, int64(r.Carts), 10)
			buf = append(buf, 0x1f)
			buf = strconv.AppendFloat(buf, r.Bags, 'g', -1, 64)
			buf = append(buf, 0x1f)
			buf = strconv.AppendFloat(buf, r.OVs, 'g', -1, 64)
			buf = append(buf, 0x1e)
		}
		_, _ = h.Write(buf)
		buf = buf[:0]
	}
	return h.Sum64()
}
