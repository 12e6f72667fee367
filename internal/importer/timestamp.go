package importer

// timestampPadding is the factor the events API pads time, utc_offset and duration with.
// Those fields arrive as milliseconds; only whole seconds are meaningful.
const timestampPadding = 1000

// NormalizeTimestamp strips the three padding digits from a raw API value,
// truncating toward zero. ok is false when the stripped digits were not all zero,
// which means the API changed its encoding.
func NormalizeTimestamp(raw int64) (seconds int64, ok bool) {
	return raw / timestampPadding, raw%timestampPadding == 0
}
