package symbols

import (
	"sort"
	"strings"
)

// DefaultForexSuffix Yahoo Finance 外汇代码后缀，例如 EURUSD -> EURUSD=X
const DefaultForexSuffix = "=X"

// DefaultMapping 常见 CFD/指数/贵金属的交易场所代码到 Yahoo 代码映射
func DefaultMapping() map[string]string {
	return map[string]string{
		"XAUUSD": "GC=F",
		"XAGUSD": "SI=F",
		"USOIL":  "CL=F",
		"UKOIL":  "BZ=F",
		"US30":   "^DJI",
		"US500":  "^GSPC",
		"NAS100": "^NDX",
		"GER40":  "^GDAXI",
		"BTCUSD": "BTC-USD",
		"ETHUSD": "ETH-USD",
	}
}

// Resolver 交易场所代码 -> 数据源代码。构造后只读，可并发使用。
//
// 解析分三级：显式映射 -> 原始代码 -> 原始代码加外汇后缀重试。
// 第三级由调用方在首次取数为空时触发，且总是基于原始代码拼接后缀，
// 而不是基于已经失败的数据源代码。
type Resolver struct {
	mapping map[string]string
	suffix  string
}

// MergeMapping 规范化 key 后合并，overrides 覆盖 base 中的同名项（不区分大小写）
func MergeMapping(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for _, src := range []map[string]string{base, overrides} {
		for _, k := range sortedKeys(src) {
			if nk := normalize(k); nk != "" {
				out[nk] = src[k]
			}
		}
	}
	return out
}

// NewResolver mapping 为 nil 时不做显式映射；suffix 为空时使用 DefaultForexSuffix。
// 规范化后冲突的 key 按原始 key 排序，后者生效；需要覆盖语义时先用 MergeMapping。
func NewResolver(mapping map[string]string, suffix string) *Resolver {
	m := make(map[string]string, len(mapping))
	for _, raw := range sortedKeys(mapping) {
		k := normalize(raw)
		v := strings.TrimSpace(mapping[raw])
		if k == "" || v == "" {
			continue
		}
		m[k] = v
	}
	if suffix == "" {
		suffix = DefaultForexSuffix
	}
	return &Resolver{mapping: m, suffix: suffix}
}

func normalize(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve 返回首次取数使用的数据源代码
func (r *Resolver) Resolve(venueSymbol string) string {
	if t, ok := r.Lookup(venueSymbol); ok {
		return t
	}
	return strings.TrimSpace(venueSymbol)
}

// Lookup 只查显式映射
func (r *Resolver) Lookup(venueSymbol string) (string, bool) {
	t, ok := r.mapping[normalize(venueSymbol)]
	return t, ok
}

// Fallback 返回重试用的代码：原始代码 + 外汇后缀
func (r *Resolver) Fallback(venueSymbol string) string {
	return strings.TrimSpace(venueSymbol) + r.suffix
}

// Suffix 当前外汇后缀
func (r *Resolver) Suffix() string { return r.suffix }

// ParseList 解析逗号分隔的代码列表：去空白、转大写、丢弃空项
func ParseList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := normalize(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
