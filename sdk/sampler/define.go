package sampler

// Weight 可作為抽樣權重的數值型別。
// 權重一律轉成 float64 累加，整數權重超過 2^53 會失去精度。
type Weight interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}
